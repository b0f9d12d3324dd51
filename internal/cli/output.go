package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The operation ran and failed
	ExitCommandError = 2 // Bad input: flags, JSON, unknown collection, no session
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope of every command result.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

type CLIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}

	switch v := data.(type) {
	case []domain.Record:
		if len(v) == 0 {
			_, err := fmt.Fprintln(f.Writer, "(no records)")
			return err
		}
		for _, rec := range v {
			if err := f.line(rec); err != nil {
				return err
			}
		}
		return nil
	case domain.Record:
		return f.line(v)
	case *domain.Actor:
		tenant := v.CompanyID
		if tenant == "" {
			tenant = "-"
		}
		_, err := fmt.Fprintf(f.Writer, "%s <%s> role=%s tenant=%s\n", v.Name, v.Email, v.Role, tenant)
		return err
	default:
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
}

// Error outputs a failure in the configured format.
func (f *OutputFormatter) Error(err error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: GetExitCode(err), Message: err.Error()},
		})
	}
	_, werr := fmt.Fprintf(f.Writer, "Error: %s\n", err)
	return werr
}

func (f *OutputFormatter) line(rec domain.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cli.OutputFormatter: %w", err)
	}
	_, err = fmt.Fprintln(f.Writer, string(b))
	return err
}
