package errors

import "fmt"

// Common error wrapping patterns used throughout the pipeline

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapDependencyError wraps dependency injection errors
func WrapDependencyError(dependencyType, dependencyName string, cause error) *BaseError {
	message := fmt.Sprintf("failed to resolve dependency '%s' of type '%s'", dependencyName, dependencyType)
	return Wrap(DependencyErrorCode, message, cause).
		WithContext("dependency_type", dependencyType).
		WithContext("dependency_name", dependencyName)
}

// WrapValidationError wraps an error with a "failed to validate" message
func WrapValidationError(subject string, cause error) *BaseError {
	return Wrap(ValidationErrorCode, fmt.Sprintf("failed to validate %s", subject), cause).
		WithContext("subject", subject)
}

// WrapRegistrationError wraps route or service registration failures
func WrapRegistrationError(componentType, name string, cause error) *BaseError {
	message := fmt.Sprintf("failed to register %s '%s'", componentType, name)
	return Wrap(RegistrationErrorCode, message, cause).
		WithContext("component_type", componentType).
		WithContext("component_name", name)
}

// WrapCacheError wraps snapshot persistence errors
func WrapCacheError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s controller cache '%s'", operation, path)
	return Wrap(CacheErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// ConfigurationError creates a configuration error
func ConfigurationError(configType, message string) *BaseError {
	fullMessage := fmt.Sprintf("configuration error in '%s': %s", configType, message)
	return New(ConfigurationErrorCode, fullMessage).
		WithContext("config_type", configType)
}

// ValidationError creates a metadata validation error at the given location
func ValidationError(loc SourceLocation, format string, args ...interface{}) *BaseError {
	return Newf(ValidationErrorCode, format, args...).WithLocation(loc)
}

// SyntaxError creates an annotation syntax error at the given location
func SyntaxError(loc SourceLocation, cause error) *BaseError {
	return Wrap(SyntaxErrorCode, "malformed annotation", cause).WithLocation(loc)
}

// DependencyError creates a dependency error
func DependencyError(dependencyType, dependencyName, message string) *BaseError {
	fullMessage := fmt.Sprintf("dependency error for '%s' of type '%s': %s", dependencyName, dependencyType, message)
	return New(DependencyErrorCode, fullMessage).
		WithContext("dependency_type", dependencyType).
		WithContext("dependency_name", dependencyName)
}

// RegistrationError creates a registration error without wrapping
func RegistrationError(componentType, name, reason string) *BaseError {
	fullMessage := fmt.Sprintf("failed to register %s '%s': %s", componentType, name, reason)
	return New(RegistrationErrorCode, fullMessage).
		WithContext("component_type", componentType).
		WithContext("component_name", name)
}
