package config

import (
	"strings"
	"testing"
	"time"

	"github.com/mfenderov/plenar/internal/sanitize"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "https://www.bundestag.de/services/opendata", cfg.Portal.BaseURL)
	assert.Equal(t, []Period{
		{ID: "pp20", Container: "#bt-collapse-866354"},
		{ID: "pp19", Container: "#bt-collapse-543410"},
	}, cfg.Portal.Periods)
	assert.Equal(t, "a.bt-link-dokument", cfg.Portal.LinkSelector)
	assert.Equal(t, ".slick-next.slick-arrow", cfg.Portal.NextSelector)
	assert.Equal(t, 750*time.Millisecond, cfg.Portal.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Portal.NextTimeout)
	assert.Equal(t, "//kopfdaten//datum/@date", cfg.Extraction.Queries.Date)
	assert.Equal(t, sanitize.DefaultDeclarations, cfg.Extraction.Declarations)
	assert.Empty(t, cfg.Storage.Endpoint, "mirror is opt-in")
	assert.Equal(t, "plenar-speeches", cfg.Elasticsearch.Index)
}

func TestUnmarshalOverridesDefaults(t *testing.T) {
	yaml := `
portal:
  settle_delay: 1500ms
  periods:
    - id: pp21
      container: "#bt-collapse-1"
output:
  data_root: /var/lib/plenar
  markdown: true
extraction:
  queries:
    exclude_after: ""
  declarations:
    - "<!DOCTYPE x>"
`
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, 1500*time.Millisecond, cfg.Portal.SettleDelay)
	assert.Equal(t, []Period{{ID: "pp21", Container: "#bt-collapse-1"}}, cfg.Portal.Periods)
	assert.Equal(t, "a.bt-link-dokument", cfg.Portal.LinkSelector, "unset keys keep their defaults")
	assert.Equal(t, "/var/lib/plenar", cfg.Output.DataRoot)
	assert.True(t, cfg.Output.Markdown)
	assert.Empty(t, cfg.Extraction.Queries.ExcludeAfter)
	assert.Equal(t, "//rede", cfg.Extraction.Queries.Speech)
	assert.Equal(t, []string{"<!DOCTYPE x>"}, cfg.Extraction.Declarations)

	assert.Len(t, sanitize.DefaultDeclarations, 2, "defaults are not shared with the config")
}
