package hitkit

import "errors"

var (
	// ErrStorageUnavailable indicates the hit log or visitor registry storage could not be read or written.
	ErrStorageUnavailable = errors.New("hit_store.storage_unavailable")
	// ErrCorruptedLog indicates the last record of a resource log failed to parse.
	ErrCorruptedLog = errors.New("hit_log.corrupted_record")
	// ErrVisitorNotFound indicates no visitor record matched the provided fingerprint.
	ErrVisitorNotFound = errors.New("visitor_registry.not_found")
	// ErrEmptyResourcePath indicates a hit was submitted without any usable path segments.
	ErrEmptyResourcePath = errors.New("hit_recorder.empty_resource_path")
)
