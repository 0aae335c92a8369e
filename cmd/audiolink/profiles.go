package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/audiolink-core/internal/registry"
)

var errNoProfileKey = errors.New("one of --mac or --id is required")

func (c *cli) profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect and edit paired-device profiles",
	}
	cmd.AddCommand(c.profilesListCmd(), c.profilesAddCmd(), c.profilesRemoveCmd())
	return cmd
}

func (c *cli) profilesListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig(true)
			if err != nil {
				return err
			}
			reg, closeFn, err := openRegistry(cmd, cfg, toolLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer closeFn()

			profiles := reg.GetProfiles()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(profilesView(profiles))
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MAC\tDEVICE ID\tLABEL\tTRANSPORT\tAUDIO\tNOTIFY\tPRIMARY")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%t\t%t\n",
					dash(p.MACAddress), dash(p.DeviceID), dash(p.Label), dash(p.TransportHint),
					p.AllowAudio, p.AllowNotifications, p.IsPrimary)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print profiles as JSON")
	return cmd
}

func (c *cli) profilesAddCmd() *cobra.Command {
	var (
		p               = registry.NewDeviceProfile()
		noAudio         bool
		noNotifications bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if p.MACAddress == "" && p.DeviceID == "" {
				return errNoProfileKey
			}
			cfg, err := c.loadConfig(true)
			if err != nil {
				return err
			}
			reg, closeFn, err := openRegistry(cmd, cfg, toolLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer closeFn()

			p.AllowAudio = !noAudio
			p.AllowNotifications = !noNotifications
			reg.AddOrUpdateProfile(p)

			fmt.Fprintf(cmd.OutOrStdout(), "saved profile %s\n", profileKey(p))
			return nil
		},
	}
	cmd.Flags().StringVar(&p.MACAddress, "mac", "", "device MAC address")
	cmd.Flags().StringVar(&p.DeviceID, "id", "", "device id")
	cmd.Flags().StringVar(&p.Label, "label", "", "display label")
	cmd.Flags().StringVar(&p.Description, "description", "", "free-form description")
	cmd.Flags().StringVar(&p.TransportHint, "transport", "", "preferred transport hint")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "disallow audio routing")
	cmd.Flags().BoolVar(&noNotifications, "no-notifications", false, "disallow notifications")
	cmd.Flags().BoolVar(&p.IsPrimary, "primary", false, "mark as primary device")
	return cmd
}

func (c *cli) profilesRemoveCmd() *cobra.Command {
	var mac, deviceID string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove profiles by MAC or device id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mac == "" && deviceID == "" {
				return errNoProfileKey
			}
			cfg, err := c.loadConfig(true)
			if err != nil {
				return err
			}
			reg, closeFn, err := openRegistry(cmd, cfg, toolLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer closeFn()

			var removed bool
			if mac != "" {
				removed = reg.RemoveProfileByMac(mac)
			} else {
				removed = reg.RemoveProfileByID(deviceID)
			}
			if !removed {
				return fmt.Errorf("no profile matches %s", firstNonEmpty(mac, deviceID))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed profile %s\n", firstNonEmpty(mac, deviceID))
			return nil
		},
	}
	cmd.Flags().StringVar(&mac, "mac", "", "device MAC address")
	cmd.Flags().StringVar(&deviceID, "id", "", "device id")
	return cmd
}

type profileView struct {
	DeviceID           string `json:"device_id"`
	MAC                string `json:"mac"`
	Label              string `json:"label"`
	Description        string `json:"description"`
	TransportHint      string `json:"transport_hint"`
	AllowAudio         bool   `json:"allow_audio"`
	AllowNotifications bool   `json:"allow_notifications"`
	IsPrimary          bool   `json:"is_primary"`
}

func profilesView(profiles []registry.DeviceProfile) []profileView {
	out := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileView{
			DeviceID:           p.DeviceID,
			MAC:                p.MACAddress,
			Label:              p.Label,
			Description:        p.Description,
			TransportHint:      p.TransportHint,
			AllowAudio:         p.AllowAudio,
			AllowNotifications: p.AllowNotifications,
			IsPrimary:          p.IsPrimary,
		})
	}
	return out
}

func profileKey(p registry.DeviceProfile) string {
	if p.MACAddress != "" {
		return registry.NormalizeMAC(p.MACAddress)
	}
	return p.DeviceID
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
