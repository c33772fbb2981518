package commands

import "errors"

// errNothingToDo rolls back a unit of work whose guard no longer holds.
var errNothingToDo = errors.New("nothing to do")
