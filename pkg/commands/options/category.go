package options

import (
	"github.com/spf13/pflag"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/printers"
	"tableflip.dev/apphub/pkg/settings"
)

var (
	_ pflag.Value = (*CategoryValue)(nil)
	_ pflag.Value = (*printers.Format)(nil)
	_ pflag.Value = (*settings.ThemeMode)(nil)
)

// CategoryValue is a pflag.Value accepting built-in categories case
// insensitively and anything else as a custom category.
type CategoryValue struct {
	Category apps.Category
}

func (c *CategoryValue) String() string { return string(c.Category) }

func (c *CategoryValue) Set(raw string) error {
	parsed, err := apps.ParseCategory(raw)
	if err != nil {
		return err
	}
	c.Category = parsed
	return nil
}

func (c *CategoryValue) Type() string { return "category" }
