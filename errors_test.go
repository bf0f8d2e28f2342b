package confdispatch_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	cd "github.com/reoring/confdispatch"
)

func TestError_Format(t *testing.T) {
	e := &cd.Error{
		Code:     cd.CodeUnresolvedRoot,
		Message:  "no parser declares element <x>",
		Location: cd.Location{Resource: "a.xml", Line: 3, Column: 7},
		Hints:    []string{"{urn:a:*}y [1.0+]"},
	}
	assert.Equal(t, "a.xml:3:7: no parser declares element <x> (did you mean {urn:a:*}y [1.0+]?)", e.Error())

	cause := errors.New("boom")
	e2 := &cd.Error{Code: cd.CodeResourceFailure, Message: "cannot include 'b.xml'", Cause: cause}
	assert.Equal(t, "<input>: cannot include 'b.xml': boom", e2.Error())
	assert.ErrorIs(t, e2, cause)
}

func TestError_Helpers(t *testing.T) {
	inner := &cd.Error{Code: cd.CodeReadPastEnd}
	wrapped := fmt.Errorf("context: %w", inner)
	got, ok := cd.AsError(wrapped)
	assert.True(t, ok)
	assert.Same(t, inner, got)
	assert.Equal(t, cd.CodeReadPastEnd, cd.CodeOf(wrapped))
	assert.True(t, cd.IsCode(wrapped, cd.CodeReadPastEnd))
	assert.Equal(t, cd.Code(""), cd.CodeOf(errors.New("plain")))
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "<input>", cd.Location{}.String())
	assert.Equal(t, "c.json (/config/cache)", cd.Location{Resource: "c.json", Path: "/config/cache"}.String())
	assert.Equal(t, "c.xml:4", cd.Location{Resource: "c.xml", Line: 4}.String())
}

func TestIssues(t *testing.T) {
	iss := cd.Issues{
		{Code: cd.CodeDeprecatedConstruct, Name: "a", Message: "deprecated", Location: cd.Location{Resource: "x", Line: 1}},
		{Code: cd.CodeUnexpectedElement, Name: "b"},
		{Code: cd.CodeDeprecatedConstruct, Name: "c"},
		{Code: cd.CodeDeprecatedConstruct, Name: "d"},
	}
	assert.Len(t, iss.WithCode(cd.CodeDeprecatedConstruct), 3)
	assert.Contains(t, iss.Error(), "(total 4)")
	assert.Equal(t, "x:1: 'a' deprecated", iss[0].String())
	assert.Equal(t, "", cd.Issues(nil).Error())
}
