package pattern_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chainmux/core/pattern"
)

func TestCompileAndMatch(t *testing.T) {
	t.Parallel()

	tmpl := pattern.MustCompile("/a/{x}/b/{y}", []pattern.Param{
		{Name: "x", Type: pattern.Int},
		{Name: "y", Type: pattern.String},
	})

	tests := []struct {
		name   string
		path   string
		ok     bool
		params map[string]string
	}{
		{"both valid", "/a/42/b/hello", true, map[string]string{"x": "42", "y": "hello"}},
		{"signed int", "/a/-7/b/z", true, map[string]string{"x": "-7", "y": "z"}},
		{"decoded string", "/a/1/b/hello%20world", true, map[string]string{"x": "1", "y": "hello world"}},
		{"int violated", "/a/4x/b/hello", false, map[string]string{}},
		{"string with slash", "/a/1/b/c/d", false, map[string]string{}},
		{"empty capture", "/a//b/hello", false, map[string]string{}},
		{"empty trailing capture", "/a/1/b/", false, map[string]string{}},
		{"literal mismatch", "/x/1/b/y", false, map[string]string{}},
		{"missing tail", "/a/1", false, map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, params := tmpl.Match(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestMatchTypes(t *testing.T) {
	t.Parallel()

	t.Run("float", func(t *testing.T) {
		t.Parallel()

		m := pattern.MustCompile("/price/{v}", []pattern.Param{{Name: "v", Type: pattern.Float}}).Matcher()
		ok, params := m("/price/3.14")
		assert.True(t, ok)
		assert.Equal(t, "3.14", params["v"])

		ok, _ = m("/price/3")
		assert.False(t, ok)
	})

	t.Run("bool", func(t *testing.T) {
		t.Parallel()

		m := pattern.MustCompile("/flag/{b}", []pattern.Param{{Name: "b", Type: pattern.Bool}}).Matcher()
		for _, v := range []string{"0", "1", "n", "no", "y", "yes", "true", "false"} {
			ok, _ := m("/flag/" + v)
			assert.True(t, ok, v)
		}
		ok, _ := m("/flag/maybe")
		assert.False(t, ok)
	})

	t.Run("regex override is anchored", func(t *testing.T) {
		t.Parallel()

		m := pattern.MustCompile("/code/{c}", []pattern.Param{{Name: "c", Regex: "[A-Z]{3}"}}).Matcher()
		ok, _ := m("/code/ABC")
		assert.True(t, ok)
		ok, _ = m("/code/ABCD")
		assert.False(t, ok)
	})

	t.Run("override with caret is still anchored at the end", func(t *testing.T) {
		t.Parallel()

		m := pattern.MustCompile("/slug/{s}", []pattern.Param{{Name: "s", Regex: "^[a-z]+"}}).Matcher()
		ok, _ := m("/slug/abc")
		assert.True(t, ok)
		ok, _ = m("/slug/abc123")
		assert.False(t, ok)
	})

	t.Run("literal with space and non-ascii text", func(t *testing.T) {
		t.Parallel()

		m := pattern.MustCompile("/café/my files/{id}", []pattern.Param{{Name: "id", Type: pattern.Int}}).Matcher()
		ok, params := m("/caf%C3%A9/my%20files/7")
		assert.True(t, ok)
		assert.Equal(t, "7", params["id"])

		// Templates may also spell the literal already escaped.
		m = pattern.MustCompile("/caf%c3%a9", nil).Matcher()
		ok, _ = m("/caf%C3%A9")
		assert.True(t, ok)
	})

	t.Run("literal suffix after last placeholder", func(t *testing.T) {
		t.Parallel()

		m := pattern.MustCompile("/files/{name}.json", []pattern.Param{{Name: "name"}}).Matcher()
		ok, params := m("/files/a.b.json")
		assert.True(t, ok)
		assert.Equal(t, "a.b", params["name"])
	})

	t.Run("static template", func(t *testing.T) {
		t.Parallel()

		m := pattern.MustCompile("/a/fixed", nil).Matcher()
		ok, params := m("/a/fixed")
		assert.True(t, ok)
		assert.Empty(t, params)

		ok, _ = m("/a/fixed/more")
		assert.False(t, ok)
	})
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		params   []pattern.Param
		err      error
	}{
		{"adjacent placeholders", "/{a}{b}", []pattern.Param{{Name: "a"}, {Name: "b"}}, pattern.ErrAdjacentParams},
		{"undeclared placeholder", "/{a}", nil, pattern.ErrUnresolvedParam},
		{"unknown type", "/{a}", []pattern.Param{{Name: "a", Type: pattern.Type(99)}}, pattern.ErrUnresolvedParam},
		{"duplicate declaration", "/{a}", []pattern.Param{{Name: "a"}, {Name: "a"}}, pattern.ErrDuplicateParam},
		{"repeated placeholder", "/{a}/{a}", []pattern.Param{{Name: "a"}}, pattern.ErrDuplicateParam},
		{"bad regex", "/{a}", []pattern.Param{{Name: "a", Regex: "("}}, pattern.ErrInvalidRegexp},
		{"unclosed", "/{a", nil, pattern.ErrUnclosedParam},
		{"stray close", "/a}", nil, pattern.ErrUnclosedParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := pattern.Compile(tt.template, tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/plain", "/plain"},
		{"/a%2fb", "/a%2Fb"},
		{"/caf%c3%a9", "/caf%C3%A9"},
		{"/trailing%", "/trailing%"},
		{"/short%a", "/short%a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pattern.NormalizePath(tt.in), tt.in)
	}
}

func TestCompileIgnoresUnreferencedParams(t *testing.T) {
	t.Parallel()

	tmpl, err := pattern.Compile("/a/{x}", []pattern.Param{{Name: "x"}, {Name: "other", Type: pattern.Int}})
	require.NoError(t, err)
	assert.Equal(t, 1, tmpl.NumParams())
	assert.Equal(t, []string{"x"}, tmpl.Names())
}

func TestCache(t *testing.T) {
	t.Parallel()

	var c pattern.Cache
	key := pattern.Key{Method: "GET", Template: "/a/{x}", Index: 0}

	compiles := 0
	compile := func() pattern.Matcher {
		compiles++
		return pattern.MustCompile("/a/{x}", []pattern.Param{{Name: "x"}}).Matcher()
	}

	m1 := c.Get(key, compile)
	m2 := c.Get(key, compile)
	assert.Equal(t, 1, compiles)
	assert.Equal(t, 1, c.Len())

	ok1, p1 := m1("/a/v")
	ok2, p2 := m2("/a/v")
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, p1, p2)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	c.Get(key, compile)
	assert.Equal(t, 2, compiles)
}

func TestCacheConcurrentPopulation(t *testing.T) {
	t.Parallel()

	var c pattern.Cache
	key := pattern.Key{Method: "GET", Template: "/n/{v}", Index: 1}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := c.Get(key, func() pattern.Matcher {
				return pattern.MustCompile("/n/{v}", []pattern.Param{{Name: "v", Type: pattern.Int}}).Matcher()
			})
			ok, params := m("/n/5")
			assert.True(t, ok)
			assert.Equal(t, "5", params["v"])
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
