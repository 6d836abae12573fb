package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the cached reference data (techs, customers, contacts, products)",
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch reference data from Syncro and overwrite the cache",
	Args:  exactArgs(0),
	RunE:  runCacheRefresh,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache file",
	Args:  exactArgs(0),
	RunE:  runCacheClear,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print what the cache holds",
	Args:  exactArgs(0),
	RunE:  runCacheShow,
}

func init() {
	cacheCmd.AddCommand(cacheRefreshCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}

func runCacheRefresh(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.api(cmd.Context())
	if err != nil {
		return err
	}
	store := a.cache()
	ref, err := store.Refresh(cmd.Context(), c.FetchReference)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  ✓ Refreshed: %s (%d customers, %d techs, %d API calls)\n",
		store.Path(), len(ref.Customers), len(ref.Techs), c.Calls())
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	store := a.cache()
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  ✓ Cleared:  %s\n", store.Path())
	return nil
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	store := a.cache()
	ref, fetchedAt, ok, err := store.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "No cache at %s\n", store.Path())
		return nil
	}
	fmt.Fprintf(out, "Cache:       %s\n", store.Path())
	fmt.Fprintf(out, "Fetched:     %s\n", fetchedAt.In(a.cfg.Location()).Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Techs:       %d\n", len(ref.Techs))
	fmt.Fprintf(out, "Customers:   %d\n", len(ref.Customers))
	fmt.Fprintf(out, "Contacts:    %d\n", len(ref.Contacts))
	fmt.Fprintf(out, "Products:    %d\n", len(ref.Products))
	fmt.Fprintf(out, "Issue types: %d\n", len(ref.IssueTypes))
	fmt.Fprintf(out, "Statuses:    %d\n", len(ref.Statuses))
	return nil
}
