package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateStaffCommand_RequiresFlags(t *testing.T) {
	cmd := newCreateStaffCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--email", "admin@campus.edu"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "required flag")
}

func TestCreateStaffCommand_RequiresPassword(t *testing.T) {
	t.Setenv(staffPasswordEnv, "")
	cmd := newCreateStaffCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--email", "admin@campus.edu", "--nome", "Admin", "--setor", "TI"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, staffPasswordEnv)
}
