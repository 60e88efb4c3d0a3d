package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyText(t *testing.T) {
	p := New(0)

	cases := map[string]string{
		"plain":                                "plain",
		"  lots   of\n\tspace ":                "lots of space",
		"<script>alert(1)</script>hello":       "hello",
		`<b onclick="x()">bold</b> & friends`:  "bold & friends",
		"bell\x07ring":                         "bellring",
		`<a href="javascript:alert(1)">hi</a>`: "hi",
	}
	for in, want := range cases {
		assert.Equal(t, want, p.Text(in), "input %q", in)
	}
}

func TestPolicyTextCapsRunes(t *testing.T) {
	p := New(5)
	assert.Equal(t, "héllo", p.Text("héllo wörld"))
	assert.Equal(t, "ab", p.Text("ab"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "beach.jpg", FileName("beach.jpg"))
	assert.Equal(t, "me.png", FileName("../../etc/me.png"))
	assert.Equal(t, "me.png", FileName(`C:\Users\me\me.png`))
	assert.Equal(t, "photo", FileName(""))
	assert.Equal(t, "photo", FileName("<img src=x>"))
}
