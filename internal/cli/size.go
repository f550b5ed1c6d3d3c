package cli

import (
	"fmt"
	"os"

	"github.com/glorpus-work/sigsync/internal/logger"
	"github.com/glorpus-work/sigsync/pkg/manifest"
	"github.com/spf13/cobra"
)

const bytesPerGiB = 1 << 30

// NewSizeCmd creates the size command.
func NewSizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "size <catalog>",
		Short: "Report the total size of the signatures in a catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  runSize,
	}

	return cmd
}

func runSize(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = file.Close() }()

	paths, err := manifest.ReadPaths(file)
	if err != nil {
		return err
	}

	var total int64
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			continue
		}
		total += info.Size()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d bytes, %.2f GiB\n", total, float64(total)/bytesPerGiB)
	return nil
}
