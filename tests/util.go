package testutil

import (
	"io/ioutil"
	"log"
	"testing"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
)

// NewLogger returns a logger that reports nothing to Rollbar; set -v to see its output.
func NewLogger(t *testing.T) core.Logger {
	out := ioutil.Discard
	if testing.Verbose() {
		out = testWriter{t}
	}
	logger := logsvc.NewRollbarLogger(log.New(out, "TEST : ", log.Lmicroseconds), &core.Config{Env: "TEST", TestMode: true})
	logger.Enable(false)
	return logger
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func NewUser(id, name, email string, role user.Role) user.User {
	return user.User{ID: id, Name: name, Email: email, Role: role}
}
