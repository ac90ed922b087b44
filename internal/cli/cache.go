package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devtoc/infograph/pkg/cache"
	"github.com/devtoc/infograph/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the migration and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// fileCacheDir returns the directory of the file cache.
func (c *CLI) fileCacheDir() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	if cfg.Cache.RedisURL != "" {
		printWarning("cache is stored in redis at %s", cfg.Cache.RedisURL)
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var keyType string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached migrations and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch keyType {
			case "", cache.KeyTypeMigration, cache.KeyTypeRender:
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown cache type %q (want %s or %s)", keyType, cache.KeyTypeMigration, cache.KeyTypeRender)
			}
			dir, err := c.fileCacheDir()
			if err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear(keyType)
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyType, "type", "", "only clear one entry type: migration or render")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
}
