// Package errors provides the sentinel errors shared by the cart and order stores.
package errors

import "errors"

var ErrInvalidInput = errors.New("invalid input")

var ErrUnknownOrderStatus = errors.New("unknown order status")

var ErrInvalidToken = errors.New("invalid session token")

var ErrTokenExpired = errors.New("session token expired")
