// Package errors provides the structured error type used across lumison.
package errors
