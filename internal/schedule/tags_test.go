package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkondratev/eventprog/internal/schedule"
)

func TestTagSet_KnownAliases(t *testing.T) {
	tags := schedule.NewTagSet()

	assert.Equal(t, "ai", tags.Canonicalize("AI"))
	assert.Equal(t, "ai", tags.Canonicalize(" Artificial Intelligence "))
	assert.Equal(t, "ml", tags.Canonicalize("Machine Learning"))
	assert.Equal(t, "devops", tags.Canonicalize("SRE"))

	assert.Equal(t, "AI", tags.Label("ai"))
	assert.Equal(t, "Machine Learning", tags.Label("ml"))
}

// Unknown tokens pass through unchanged, and label falls back to the token,
// so new topics surface instead of vanishing.
func TestTagSet_UnknownFallsBackToIdentity(t *testing.T) {
	tags := schedule.NewTagSet()

	assert.Equal(t, "quantum-knitting", tags.Canonicalize("quantum-knitting"))
	assert.Equal(t, "quantum-knitting", tags.Label("quantum-knitting"))
}

func TestExtractTags(t *testing.T) {
	clean, raw := schedule.ExtractTags("Keynote {AI} on robots {ml}\nbody {  }")

	assert.Equal(t, "Keynote  on robots \nbody", clean)
	assert.Equal(t, []string{"AI", "ml"}, raw)
}

func TestExtractTags_NoTags(t *testing.T) {
	clean, raw := schedule.ExtractTags("plain text")

	assert.Equal(t, "plain text", clean)
	assert.Empty(t, raw)
}
