package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeTitle(t *testing.T) {
	assert.Equal(t, "flakestry", Home().Title)
}

func TestHomeRegions(t *testing.T) {
	body := Home().Body
	require.Len(t, body, 3)

	tags := []string{body[0].Tag(), body[1].Tag(), body[2].Tag()}
	assert.Equal(t, []string{"nav", "main", "footer"}, tags)
}

func TestHomeNavLinks(t *testing.T) {
	nav := Home().Body[0]

	lists := nav.FindTag("ul")
	require.Len(t, lists, 1)

	links := lists[0].FindKind(KindLink)
	require.Len(t, links, 2)

	testCases := []struct {
		text string
		href string
	}{
		{"Home", "/"},
		{"About", "#"},
	}
	for i, tc := range testCases {
		assert.Equal(t, tc.text, links[i].Text())
		href, ok := links[i].Attr("href")
		assert.True(t, ok)
		assert.Equal(t, tc.href, href)
	}
}

func TestHomeNavBrand(t *testing.T) {
	nav := Home().Body[0]
	assert.Contains(t, nav.Text(), "Flakestry")

	images := nav.FindKind(KindImage)
	require.Len(t, images, 1)
	src, _ := images[0].Attr("src")
	assert.Equal(t, SnowflakeLogoURL, src)

	brand := nav.Find(func(n Node) bool { return n.Kind() == KindLink && n.Text() == "Flakestry" })
	require.Len(t, brand, 1)
	href, _ := brand[0].Attr("href")
	assert.Equal(t, "/", href)
}

func TestHomeNavSearchBox(t *testing.T) {
	nav := Home().Body[0]

	inputs := nav.FindKind(KindInput)
	require.Len(t, inputs, 1)
	typ, _ := inputs[0].Attr("type")
	placeholder, _ := inputs[0].Attr("placeholder")
	assert.Equal(t, "text", typ)
	assert.Equal(t, "Search", placeholder)

	buttons := nav.FindKind(KindButton)
	require.Len(t, buttons, 1)
	assert.Equal(t, "Publish", buttons[0].Text())
}

func TestHomeMain(t *testing.T) {
	children := Home().Body[1].Children()
	require.Len(t, children, 2)

	assert.Equal(t, "h1", children[0].Tag())
	assert.Equal(t, "Welcome to flakestry!", children[0].Text())
	assert.Equal(t, "p", children[1].Tag())
	assert.Equal(t, "here goes flakes", children[1].Text())
}

func TestHomeFooter(t *testing.T) {
	footer := Home().Body[2]

	paragraphs := footer.FindTag("p")
	require.Len(t, paragraphs, 1)
	assert.Equal(t, "Read more about this project <here>.", paragraphs[0].Text())
	// placeholder stays text, no link inside the footer
	assert.Empty(t, footer.FindKind(KindLink))

	class, _ := paragraphs[0].Attr("class")
	assert.Contains(t, class, "text-center")
}

func TestHomeIdempotent(t *testing.T) {
	assert.Equal(t, Home(), Home())
}

func TestNodeCopiesAreIsolated(t *testing.T) {
	n := El("div", Class("a"), Text("x"))

	children := n.Children()
	children[0] = Text("changed")
	attrs := n.Attrs()
	attrs[0].Val = "changed"

	assert.Equal(t, "x", n.Text())
	class, _ := n.Attr("class")
	assert.Equal(t, "a", class)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "link", KindLink.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
