package mapper

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors. Every typed error below matches exactly one of these via errors.Is.
var (
	// ErrMapperMissing is returned when no mapper is registered for a source/target pair.
	ErrMapperMissing = errors.New("mapper: mapper missing")

	// ErrKeyProperty is returned when an identity or concurrency token property is missing
	// or has an unusable type.
	ErrKeyProperty = errors.New("mapper: invalid key property")

	// ErrConfiguration is returned for redundant, empty, conflicting or unknown configuration.
	ErrConfiguration = errors.New("mapper: invalid configuration")

	// ErrScalarConverter is returned when a scalar converter is rejected or missing.
	ErrScalarConverter = errors.New("mapper: invalid scalar converter")

	// ErrInvalidType is returned when a type cannot take part in a mapping.
	ErrInvalidType = errors.New("mapper: invalid type")

	// ErrNilSource is returned when a top-level map call receives a nil source.
	ErrNilSource = errors.New("mapper: source is nil")

	// ErrDuplicatedListItem is returned when the same source element appears twice in one list.
	ErrDuplicatedListItem = errors.New("mapper: duplicated list item")

	// ErrEntityNotFound is returned when a referenced identity has no matching store row
	// and the pair does not allow inserts.
	ErrEntityNotFound = errors.New("mapper: entity not found")

	// ErrConcurrencyToken is returned when source and stored concurrency tokens differ.
	ErrConcurrencyToken = errors.New("mapper: concurrency token mismatch")

	// ErrMissingConcurrencyToken is returned in strict concurrency mode when the source
	// carries no concurrency token for an update.
	ErrMissingConcurrencyToken = errors.New("mapper: concurrency token missing")

	// ErrMapToDatabaseType is returned when an insert or update is not allowed for a pair.
	ErrMapToDatabaseType = errors.New("mapper: map to database type violation")

	// ErrInsertWithExisting is returned when an insert-only pair finds an existing row.
	ErrInsertWithExisting = errors.New("mapper: insert found an existing record")

	// ErrUpdateWithoutID is returned when an update-only pair receives a source without identity.
	ErrUpdateWithoutID = errors.New("mapper: update without identity")

	// ErrUpdateWithoutRecord is returned when an update-only pair finds no row for the identity.
	ErrUpdateWithoutRecord = errors.New("mapper: update without matching record")

	// ErrUntrackedQuery is returned when an includer asks for an untracked read on the store path.
	ErrUntrackedQuery = errors.New("mapper: untracked query not allowed")
)

// MapperMissingError reports an unregistered source/target pair.
type MapperMissingError struct {
	Source reflect.Type
	Target reflect.Type
}

func (e *MapperMissingError) Error() string {
	return fmt.Sprintf("mapper: mapper from %s to %s hasn't been registered", e.Source, e.Target)
}

func (e *MapperMissingError) Is(err error) bool { return err == ErrMapperMissing }

// KeyPropertyError reports an identity or concurrency token property problem.
type KeyPropertyError struct {
	Type     reflect.Type
	Property string
	Reason   string
}

func (e *KeyPropertyError) Error() string {
	return fmt.Sprintf("mapper: type %s has no proper %s property: %s", e.Type, e.Property, e.Reason)
}

func (e *KeyPropertyError) Is(err error) bool { return err == ErrKeyProperty }

// ConfigurationError reports a configuration problem found while building a Mapper.
type ConfigurationError struct {
	Subject string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("mapper: configuration of %s: %s", e.Subject, e.Reason)
}

func (e *ConfigurationError) Is(err error) bool { return err == ErrConfiguration }

// ScalarConverterError reports a rejected or missing scalar converter.
type ScalarConverterError struct {
	Source reflect.Type
	Target reflect.Type
	Reason string
}

func (e *ScalarConverterError) Error() string {
	return fmt.Sprintf("mapper: scalar converter from %s to %s: %s", e.Source, e.Target, e.Reason)
}

func (e *ScalarConverterError) Is(err error) bool { return err == ErrScalarConverter }

// InvalidTypeError reports a type that cannot be classified for mapping.
type InvalidTypeError struct {
	Type   reflect.Type
	Reason string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("mapper: type %v is invalid: %s", e.Type, e.Reason)
}

func (e *InvalidTypeError) Is(err error) bool { return err == ErrInvalidType }

// DuplicatedListItemError reports a source element seen twice within one list.
type DuplicatedListItemError struct {
	Type     reflect.Type
	Property string
}

func (e *DuplicatedListItemError) Error() string {
	return fmt.Sprintf("mapper: list property %s contains a duplicated item of type %s", e.Property, e.Type)
}

func (e *DuplicatedListItemError) Is(err error) bool { return err == ErrDuplicatedListItem }

// EntityNotFoundError reports an identity without a matching store row.
type EntityNotFoundError struct {
	Type reflect.Type
	ID   any
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("mapper: entity %s (id=%v) not found", e.Type, e.ID)
}

func (e *EntityNotFoundError) Is(err error) bool { return err == ErrEntityNotFound }

// ConcurrencyTokenError reports a stale write.
type ConcurrencyTokenError struct {
	Source reflect.Type
	Target reflect.Type
	ID     any
}

func (e *ConcurrencyTokenError) Error() string {
	return fmt.Sprintf("mapper: data of %s (id=%v) mapped from %s is stale", e.Target, e.ID, e.Source)
}

func (e *ConcurrencyTokenError) Is(err error) bool { return err == ErrConcurrencyToken }

// MissingConcurrencyTokenError reports an update without a concurrency token in strict mode.
type MissingConcurrencyTokenError struct {
	Type reflect.Type
	ID   any
}

func (e *MissingConcurrencyTokenError) Error() string {
	return fmt.Sprintf("mapper: entity %s (id=%v) is without a concurrency token", e.Type, e.ID)
}

func (e *MissingConcurrencyTokenError) Is(err error) bool { return err == ErrMissingConcurrencyToken }

// Operation is a store operation checked against a MapToDatabaseType.
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
)

// MapToDatabaseTypeError reports an operation the pair's MapToDatabaseType forbids.
type MapToDatabaseTypeError struct {
	Source    reflect.Type
	Target    reflect.Type
	Operation Operation
}

func (e *MapToDatabaseTypeError) Error() string {
	return fmt.Sprintf("mapper: %s is not allowed when mapping %s to %s", e.Operation, e.Source, e.Target)
}

func (e *MapToDatabaseTypeError) Is(err error) bool { return err == ErrMapToDatabaseType }

// IsMapperMissing returns true if err is or wraps a MapperMissingError.
func IsMapperMissing(err error) bool {
	return errors.Is(err, ErrMapperMissing)
}

// IsConcurrency returns true for stale or missing concurrency token errors.
func IsConcurrency(err error) bool {
	return errors.Is(err, ErrConcurrencyToken) || errors.Is(err, ErrMissingConcurrencyToken)
}

// IsPolicyViolation returns true when err comes from a MapToDatabaseType check.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrMapToDatabaseType) ||
		errors.Is(err, ErrInsertWithExisting) ||
		errors.Is(err, ErrUpdateWithoutID) ||
		errors.Is(err, ErrUpdateWithoutRecord)
}

// IsBuildError returns true for errors raised while building a Mapper.
func IsBuildError(err error) bool {
	return errors.Is(err, ErrMapperMissing) ||
		errors.Is(err, ErrKeyProperty) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrScalarConverter) ||
		errors.Is(err, ErrInvalidType)
}
