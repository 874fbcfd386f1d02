package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPortal(t *testing.T) {
	p, err := LoadPortal()
	require.NoError(t, err)

	assert.Len(t, p.History, 3)
	assert.Len(t, p.Catalog, 5)
	assert.Len(t, p.AddDrop.Available, 3)
	assert.Len(t, p.Clearance, 5)
	assert.Len(t, p.Events, 6)
	assert.Len(t, p.Curriculum, 5)
	assert.Len(t, p.CourseAudit, 5)
	assert.Len(t, p.AdminPortals, 3)
	assert.Len(t, p.DegreeRequirements, 5)
	assert.Equal(t, 2300.0, p.Payments.Summary.Balance)
	assert.Equal(t, "Spring 2026", p.Withdrawal.Term)
	assert.Equal(t, []string{"CS 210"}, p.Catalog[0].Prerequisites)
	assert.Equal(t, "Outstanding fee for late book return (ID: 9876).", p.Clearance[0].Detail)
	assert.Equal(t, "Online Portal | 11:59 PM", p.Events[0].Location)
}

func TestLoadSeed(t *testing.T) {
	s, err := LoadSeed()
	require.NoError(t, err)

	require.Len(t, s.Students, 7)
	assert.Equal(t, "1001", s.Students[0].ID)
	assert.Equal(t, "On Hold", s.Students[2].Status)
	assert.Empty(t, s.Students[6].Course)
	require.Len(t, s.Admins, 1)
	assert.Equal(t, "admin123", s.Admins[0].Password)
}
