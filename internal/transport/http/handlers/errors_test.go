package handlers_test

import "errors"

var errTestMailer = errors.New("smtp unavailable")
