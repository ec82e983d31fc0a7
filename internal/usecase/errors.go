package usecase

import "errors"

var (
	// ErrUnknownCompany is returned by queries for a company absent from
	// the run.
	ErrUnknownCompany = errors.New("unknown company")
	// ErrNoRun is returned by queries before the first run completes.
	ErrNoRun = errors.New("no completed run")
)
