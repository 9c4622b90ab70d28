package discovery

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvestLinks(t *testing.T) {
	base, _ := url.Parse("https://www.bundestag.de/services/opendata")
	html := `<div id="c">
		<a class="bt-link-dokument" href="/resource/blob/1/20137-data.xml">XML</a>
		<a class="bt-link-dokument" href="">empty</a>
		<a class="bt-link-dokument">no href</a>
		<a class="bt-link-dokument" href="https://cdn.example/20136-data.xml">abs</a>
		<a class="bt-link-pdf" href="/resource/blob/1/20137.pdf">PDF</a>
	</div>`

	links, err := harvestLinks(html, "a.bt-link-dokument", base)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.bundestag.de/resource/blob/1/20137-data.xml",
		"https://cdn.example/20136-data.xml",
	}, links)
}

func TestIsDisabled(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]string
		want  bool
	}{
		{"enabled", map[string]string{"class": "slick-next slick-arrow"}, false},
		{"slick class", map[string]string{"class": "slick-next slick-arrow slick-disabled"}, true},
		{"aria", map[string]string{"aria-disabled": "true"}, true},
		{"aria false", map[string]string{"aria-disabled": "false"}, false},
		{"attribute", map[string]string{"disabled": ""}, true},
		{"class prefix only", map[string]string{"class": "slick-disabled-not"}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDisabled(tt.attrs))
		})
	}
}

func TestSortLinks(t *testing.T) {
	links := []string{
		"https://x/a/20001-data.xml",
		"https://x/b/20137-data.xml",
		"https://x/a/20137-data.xml",
		"https://x/c/19210-data.xml",
	}
	SortLinks(links)
	assert.Equal(t, []string{
		"https://x/b/20137-data.xml",
		"https://x/a/20137-data.xml",
		"https://x/a/20001-data.xml",
		"https://x/c/19210-data.xml",
	}, links)
}

func TestLinkSet(t *testing.T) {
	s := make(linkSet)
	assert.Equal(t, 2, s.add("a", "b"))
	assert.Equal(t, 1, s.add("b", "c", "c"))
	assert.Equal(t, []string{"c", "b", "a"}, s.sorted())
}
