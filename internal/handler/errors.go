package handler

import "errors"

// errNoHandlersAreCreated is returned by NewHandlers when no transport is
// configured, i.e. the server has no address to listen on.
var errNoHandlersAreCreated = errors.New("no handlers are created")
