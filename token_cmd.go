package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/azblob-go/internal/azure"
	"github.com/tonimelisma/azblob-go/internal/identity"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Acquire or refresh the access token",
		Long: `Run one token refresh cycle and report the resulting expiry. A token
with more than ten minutes of validity left is kept as-is unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}

	cmd.Flags().Bool("force", false, "refresh even if the current token is still fresh")
	cmd.Flags().Bool("show-token", false, "print the bearer token to stdout")

	return cmd
}

// tokenOutput is the --json result shape for token.
type tokenOutput struct {
	Expiry    time.Time `json:"expiry"`
	HasBearer bool      `json:"has_bearer"`
	Token     string    `json:"token,omitempty"`
}

func runToken(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	showToken, _ := cmd.Flags().GetBool("show-token")

	logger := buildLogger()
	policy := buildPolicy(logger)
	cred := buildCredential()

	if force {
		// A zero expiry is always stale, so the manager must refresh.
		cred.Expiry = 0
	}

	httpClient := azure.NewHTTPClient(resolvedCfg.ConnectTimeout())
	client := azure.NewClient(httpClient, cred, resolvedCfg.Storage.APIVersion, resolvedCfg.ReadTimeout(), logger)

	manager := identity.NewManager(cred, client, policy, logger)
	manager.SetLoginBase(resolvedCfg.Identity.LoginBase)

	st, err := manager.EnsureFresh(cmd.Context(), resolvedCfg.Transfers.MaxAttempts)
	if err != nil {
		return err
	}

	if !st.OK() {
		return fmt.Errorf("token refresh failed (transport %d, http %d)", st.Transport, st.HTTP)
	}

	expiry := time.Unix(cred.Expiry, 0)

	if flagJSON {
		out := tokenOutput{Expiry: expiry, HasBearer: cred.Bearer != ""}
		if showToken {
			out.Token = cred.Bearer
		}

		return json.NewEncoder(os.Stdout).Encode(out)
	}

	statusf("Token valid until %s\n", expiry.Format(time.RFC3339))

	if showToken {
		fmt.Println(cred.Bearer)
	}

	return nil
}
