package domain

import "errors"

var (
	ErrAllSourcesFailed = errors.New("all exchange sources failed")
	ErrNoSnapshot       = errors.New("no funding snapshot available")
)
