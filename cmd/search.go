package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	wsCtrl "github.com/Laisky/diagnostics-portal/internal/web/websearch/controller"
	"github.com/Laisky/diagnostics-portal/library/log"
)

var searchCMD = &cobra.Command{
	Use:   "search <term>",
	Short: "run one web search and print the ranked view as JSON",
	Args:  cobra.MinimumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		resourceID, err := cmd.Flags().GetString("resource-id")
		if err != nil {
			return errors.Wrap(err, "read resource-id flag")
		}

		out, err := runSearch(cmd.Context(), strings.Join(args, " "), resourceID)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func runSearch(ctx context.Context, term, resourceID string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.Logger.Named("search")

	redisDB := newRedisDB()
	if redisDB != nil {
		defer redisDB.Close() //nolint:errcheck
	}

	ctrl, err := newWebsearchController(logger, redisDB)
	if err != nil {
		return nil, errors.Wrap(err, "setup websearch")
	}

	view, _, err := ctrl.Run(ctx, wsCtrl.RunRequest{
		SearchTerm: term,
		ResourceID: resourceID,
		Embedded:   true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "run search")
	}

	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal view")
	}

	return out, nil
}

func init() {
	searchCMD.Flags().String("resource-id", "", "ARM resource id used to pick preferred sites")
	rootCMD.AddCommand(searchCMD)
}
