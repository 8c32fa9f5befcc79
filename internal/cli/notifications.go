package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-scout/internal/storage"
)

func newNotificationsCmd(root *rootOptions) *cobra.Command {
	var (
		limit      int
		format     string
		unreadOnly bool
	)

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Show the notification log, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseOutputFormat(format)
			if err != nil {
				return err
			}
			return withStore(root, func(store storage.Store) error {
				list, err := store.ListNotifications(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if unreadOnly {
					list = unread(list)
				}
				return WriteNotifications(root.out, list, f, root.verbose)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of notifications (0 for all)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only show unread notifications")

	cmd.AddCommand(newNotificationsReadCmd(root))
	return cmd
}

func newNotificationsReadCmd(root *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [ID...]",
		Short: "Mark notifications as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass notification IDs or --all")
			}
			return withStore(root, func(store storage.Store) error {
				ids := args
				if all {
					list, err := store.ListNotifications(cmd.Context(), 0)
					if err != nil {
						return err
					}
					ids = nil
					for _, n := range unread(list) {
						ids = append(ids, n.ID)
					}
				}
				for _, id := range ids {
					if err := store.MarkRead(cmd.Context(), id); err != nil {
						return notFound(err, id)
					}
				}
				fmt.Fprintf(root.out, "Marked %d notification(s) as read\n", len(ids))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Mark every notification as read")
	return cmd
}

func unread(list []*storage.Notification) []*storage.Notification {
	var out []*storage.Notification
	for _, n := range list {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}
