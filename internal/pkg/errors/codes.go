package errors

import "net/http"

var (
	ErrNoValidRecords = New(
		"NO_VALID_RECORDS",
		"No records with a resolvable position",
		http.StatusUnprocessableEntity,
	)

	ErrInvalidConfiguration = New(
		"INVALID_CONFIGURATION",
		"Invalid voxelization configuration",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrResultNotFound = New(
		"RESULT_NOT_FOUND",
		"Result not found",
		http.StatusNotFound,
	)

	ErrDatasetNotFound = New(
		"DATASET_NOT_FOUND",
		"Dataset not found",
		http.StatusNotFound,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
