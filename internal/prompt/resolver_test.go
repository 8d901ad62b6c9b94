package prompt

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestResolveAllLayerPrecedence(t *testing.T) {
	base := Layer{
		{Name: "commit_message", Text: "write a commit for {branch}"},
		{Name: "branch_name", Text: "name a branch"},
	}
	override := Layer{
		{Name: "commit_message", Text: "write a conventional commit for {branch}"},
	}
	r := New(Lenient, base, override)

	resolved := r.ResolveAll(map[string]string{"branch": "main"})

	assert.Equal(t, "write a conventional commit for main", resolved["commit_message"])
	assert.Equal(t, "name a branch", resolved["branch_name"])
}

func TestResolveAllIsDeterministic(t *testing.T) {
	layer := Layer{
		{Name: "a", Text: "alpha {x}"},
		{Name: "b", Text: "{prompt[a]} beta"},
		{Name: "c", Text: "{prompt[b]} gamma {missing}"},
	}
	r := New(Lenient, layer)
	vars := map[string]string{"x": "1"}

	first := r.ResolveAll(vars)
	second := r.ResolveAll(vars)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated resolution differed (-first +second):\n%s", diff)
	}
}

func TestResolveTemplateComposition(t *testing.T) {
	layers := []Layer{
		{
			{Name: "apply_patch_base", Text: "produce a unified diff for {branch}"},
		},
		{
			{Name: "apply_patch_minimal", Text: "{prompt[apply_patch_base]} with minimal churn"},
		},
	}
	r := New(Lenient, layers...)

	got, err := r.Resolve("apply_patch_minimal", map[string]string{"branch": "dev"})
	require.NoError(t, err)
	assert.Equal(t, "produce a unified diff for dev with minimal churn", got)
}

func TestResolveLenientMarkers(t *testing.T) {
	r := New(Lenient, Layer{
		{Name: "pr_description", Text: "describe {log} on {branch}"},
	})

	t.Run("missing variable", func(t *testing.T) {
		got, err := r.Resolve("pr_description", map[string]string{"branch": "main"})
		require.NoError(t, err)
		assert.Equal(t, "describe <KeyError log> on main", got)
	})

	t.Run("missing template", func(t *testing.T) {
		got, err := r.Resolve("no_such_template", nil)
		require.NoError(t, err)
		assert.Equal(t, "<KeyError prompt[no_such_template]>", got)
	})

	t.Run("unknown template reference", func(t *testing.T) {
		r := New(Lenient, Layer{
			{Name: "top", Text: "{prompt[absent]} trailer"},
		})
		got, err := r.Resolve("top", nil)
		require.NoError(t, err)
		assert.Equal(t, "<KeyError prompt[absent]> trailer", got)
	})
}

func TestResolveStrictSkipsUnresolvable(t *testing.T) {
	layer := Layer{
		{Name: "good", Text: "uses {branch}"},
		{Name: "bad", Text: "uses {undefined}"},
		{Name: "dependent", Text: "{prompt[bad]} more"},
	}
	r := New(Strict, layer)

	resolved := r.ResolveAll(map[string]string{"branch": "main"})
	assert.Equal(t, map[string]string{"good": "uses main"}, resolved)

	_, err := r.Resolve("bad", map[string]string{"branch": "main"})
	var missing *MissingTemplateError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "bad", missing.Name)
}

func TestSubstituteMalformedTemplate(t *testing.T) {
	text := "unbalanced {brace"

	t.Run("lenient keeps raw text", func(t *testing.T) {
		r := New(Lenient, Layer{{Name: "t", Text: text}})
		got, err := r.Resolve("t", nil)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	})

	t.Run("strict drops the template", func(t *testing.T) {
		r := New(Strict, Layer{{Name: "t", Text: text}})
		_, err := r.Resolve("t", nil)
		var missing *MissingTemplateError
		require.True(t, errors.As(err, &missing))
	})
}

func TestLayerUnmarshalPreservesOrder(t *testing.T) {
	doc := `
zeta: "last {x}"
alpha: "first"
middle: "{prompt[alpha]} then"
`
	var layer Layer
	require.NoError(t, yaml.Unmarshal([]byte(doc), &layer))

	want := Layer{
		{Name: "zeta", Text: "last {x}"},
		{Name: "alpha", Text: "first"},
		{Name: "middle", Text: "{prompt[alpha]} then"},
	}
	if diff := cmp.Diff(want, layer); diff != "" {
		t.Errorf("unexpected layer (-want +got):\n%s", diff)
	}

	r := New(Lenient, layer)
	resolved := r.ResolveAll(map[string]string{"x": "1"})
	assert.Equal(t, "first then", resolved["middle"])
}

func TestLayerUnmarshalRejectsNonMapping(t *testing.T) {
	var layer Layer
	err := yaml.Unmarshal([]byte("- not\n- a\n- mapping\n"), &layer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping")
}

func TestBaseVars(t *testing.T) {
	vars := BaseVars("/work/repo", "feature/x", map[string]string{
		"pwd":  "/override",
		"diff": "+added line",
	})

	assert.Equal(t, "/override", vars["pwd"])
	assert.Equal(t, "feature/x", vars["branch"])
	assert.Equal(t, "+added line", vars["diff"])
}
