package gen

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	c, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultHeader, c.Header)
	assert.Equal(t, DefaultIdentityEntity, c.IdentityEntity)
	assert.Equal(t, DefaultIDField, c.IDField)
	assert.Equal(t, []string{"en", "zh"}, c.Locales)
	assert.Equal(t, LocaleJSON, c.LocaleFormat)
	assert.Equal(t, DefaultUploadDir, c.UploadDir)
	assert.Equal(t, "sqlite", c.Storage.Name)
	assert.Equal(t, "Admin", c.ProjectName)
	assert.Equal(t, "en", c.BaseLocale())

	c.Locales = append(c.Locales, "fr")
	assert.Equal(t, []string{"en", "zh"}, DefaultLocales, "defaults are copied")

	err = c.validate()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestConfigFeatureEnabled(t *testing.T) {
	c := MustNewConfig(WithFeatures(FeatureCompose))
	for name, want := range map[string]bool{
		"compose":    true,
		"seed":       true,
		"migrations": false,
		"graphql":    false,
	} {
		got, err := c.FeatureEnabled(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := c.FeatureEnabled("unknown")
	assert.True(t, IsConfigError(err))
}

func TestBaseLocale(t *testing.T) {
	assert.Equal(t, "en", Config{}.BaseLocale())
	assert.Equal(t, "zh", Config{Locales: []string{"zh", "en"}}.BaseLocale())
}

func TestLocaleFormatExt(t *testing.T) {
	assert.Equal(t, ".json", LocaleJSON.Ext())
	assert.Equal(t, ".yaml", LocaleYAML.Ext())
	assert.Equal(t, ".json", LocaleFormat("").Ext())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		option string
	}{
		{name: "target", config: Config{Package: "p", LocaleFormat: LocaleJSON}, option: "Target"},
		{name: "package", config: Config{Target: "t", LocaleFormat: LocaleJSON}, option: "Package"},
		{name: "locale format", config: Config{Target: "t", Package: "p", LocaleFormat: "toml"}, option: "LocaleFormat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.option, cerr.Option)
		})
	}
	c := Config{Target: "t", Package: "p", LocaleFormat: LocaleYAML}
	assert.NoError(t, c.validate())
}

func TestOptions(t *testing.T) {
	t.Run("values", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		c, err := NewConfig(
			WithTarget("./shop"),
			WithPackage("github.com/acme/shop/backend"),
			WithProjectName("Shop"),
			WithHeader("generated"),
			WithIdentityEntity("Account"),
			WithIDField("pk"),
			WithLocales(" zh-hans ", "en", "zh-Hans"),
			WithLocaleFormat("YML"),
			WithUploadDir("media"),
			WithStorageDriver("postgres"),
			WithLogger(logger),
		)
		require.NoError(t, err)
		assert.Equal(t, "./shop", c.Target)
		assert.Equal(t, "github.com/acme/shop/backend", c.Package)
		assert.Equal(t, "Shop", c.ProjectName)
		assert.Equal(t, "generated", c.Header)
		assert.Equal(t, "Account", c.IdentityEntity)
		assert.Equal(t, "pk", c.IDField)
		assert.Equal(t, []string{"zh-Hans", "en"}, c.Locales)
		assert.Equal(t, LocaleYAML, c.LocaleFormat)
		assert.Equal(t, "media", c.UploadDir)
		assert.Equal(t, "postgres", c.Storage.Name)
		assert.Same(t, logger, c.logger())
		assert.NoError(t, c.validate())
	})

	t.Run("invalid", func(t *testing.T) {
		for name, opt := range map[string]Option{
			"package":       WithPackage(""),
			"target":        WithTarget(""),
			"identity":      WithIdentityEntity(""),
			"id field":      WithIDField(""),
			"no locales":    WithLocales(),
			"bad locale":    WithLocales("en", "not a tag!"),
			"locale format": WithLocaleFormat("toml"),
			"storage":       WithStorage(nil),
			"driver":        WithStorageDriver("oracle"),
			"database url":  WithDatabaseURL("oracle://db"),
			"logger":        WithLogger(nil),
			"feature":       WithFeatureNames("privacy"),
			"disable":       WithoutFeatures("privacy"),
		} {
			_, err := NewConfig(opt)
			require.Error(t, err, name)
			assert.True(t, IsConfigError(err), name)
		}
	})

	t.Run("database url", func(t *testing.T) {
		c := MustNewConfig(WithDatabaseURL("mysql://root@localhost/shop"))
		assert.Equal(t, "mysql", c.Storage.Name)
		c = MustNewConfig(WithStorageDriver("mysql"), WithDatabaseURL(""))
		assert.Equal(t, "mysql", c.Storage.Name, "empty url keeps the storage")
	})

	t.Run("features", func(t *testing.T) {
		c := MustNewConfig(
			WithFeatureNames("graphql", "compose", "graphql"),
			WithFeatures(FeatureCompose),
			WithoutFeatures("seed"),
		)
		names := make([]string, 0, len(c.Features))
		for _, f := range c.Features {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"graphql", "compose"}, names)
	})

	t.Run("apply all", func(t *testing.T) {
		c := &Config{}
		err := c.ApplyAll(WithPackage(""), WithTarget(""), WithHeader("h"))
		require.Error(t, err)
		assert.Equal(t, "h", c.Header)
		var cerr *ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "Package", cerr.Option)
	})
}

func TestStorage(t *testing.T) {
	t.Run("by name", func(t *testing.T) {
		for _, name := range []string{"sqlite", "postgres", "mysql"} {
			s, err := NewStorage(name)
			require.NoError(t, err)
			assert.Equal(t, name, s.String())
			assert.NotNil(t, s.Planner)
		}
		_, err := NewStorage("oracle")
		assert.Error(t, err)
	})

	t.Run("from url", func(t *testing.T) {
		for url, want := range map[string]string{
			"sqlite:///app.db":                         "sqlite",
			"file:app.db":                              "sqlite",
			"postgresql+psycopg2://u:p@localhost/shop": "postgres",
			"postgres://localhost/shop":                "postgres",
			"MySQL://root@localhost/shop":              "mysql",
			"mariadb://root@localhost/shop":            "mysql",
		} {
			s, err := StorageFromURL(url)
			require.NoError(t, err, url)
			assert.Equal(t, want, s.Name, url)
		}
		for _, url := range []string{"app.db", "oracle://db", "://bad"} {
			_, err := StorageFromURL(url)
			assert.Error(t, err, url)
		}
	})

	t.Run("placeholders", func(t *testing.T) {
		sqlite, _ := NewStorage("sqlite")
		postgres, _ := NewStorage("postgres")
		assert.Equal(t, "?", sqlite.Placeholder(3))
		assert.Equal(t, "$3", postgres.Placeholder(3))
		assert.Equal(t, "?, ?", sqlite.Placeholders(1, 2))
		assert.Equal(t, "$2, $3, $4", postgres.Placeholders(2, 3))
		assert.Equal(t, "", postgres.Placeholders(1, 0))
	})

	t.Run("embedded", func(t *testing.T) {
		sqlite, _ := NewStorage("sqlite")
		mysql, _ := NewStorage("mysql")
		assert.True(t, sqlite.Embedded())
		assert.False(t, mysql.Embedded())
		assert.Equal(t, 3306, mysql.Port)
	})

	t.Run("columns", func(t *testing.T) {
		g := catalogGraph(t, WithStorageDriver("postgres"))
		product, _ := g.Type("Product")
		id := g.Storage.column(product.ID)
		assert.Equal(t, "id", id.Name)
		assert.NotEmpty(t, id.Attrs)
		ref, _ := product.Field("category_id")
		assert.False(t, g.Storage.column(ref).Type.Null)
		cover, _ := product.Field("cover_image")
		assert.True(t, g.Storage.column(cover).Type.Null)
		other := g.Storage.idColumn("pk")
		other.Attrs = nil
		assert.NotEmpty(t, g.Storage.idColumn("pk").Attrs, "attrs are copied")
	})
}
