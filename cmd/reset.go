package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <user-identity>",
	Short: "End a user's active sessions and clear their flow state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		now := time.Now()

		u, err := s.Users().ByIdentity(ctx, args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("no user with identity %q", args[0])
		}

		ended := 0
		for {
			sess, err := s.Sessions().ActiveAny(ctx, u.ID)
			if err != nil {
				return err
			}
			if sess == nil {
				break
			}
			sess.EndedAt = &now
			if err := s.Sessions().Update(ctx, sess); err != nil {
				return err
			}
			ended++
		}

		if err := s.Users().ClearFlowState(ctx, u.ID); err != nil {
			return err
		}
		fmt.Printf("Reset %s: ended %d active session(s).\n", args[0], ended)
		return nil
	},
}
