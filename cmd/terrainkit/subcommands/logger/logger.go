package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Null discards everything. For tests.
func Null() *log.Logger {
	return log.New(io.Discard, "", log.LstdFlags)
}

// Default writes to stderr, prefixed with "[name] ".
func Default(name string) *log.Logger {
	return log.New(os.Stderr, fmt.Sprintf("[%s] ", name), log.LstdFlags)
}
