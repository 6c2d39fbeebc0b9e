package commands

import (
	"maps"
	"slices"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"omemostore/internal/crypto"
	"omemostore/internal/domain"
	"omemostore/internal/store"
)

type accountView struct {
	Account       string             `yaml:"account"`
	Dir           string             `yaml:"dir"`
	OwnDevice     *ownDeviceView     `yaml:"own_device,omitempty"`
	SignedPreKeys []signedPreKeyView `yaml:"signed_pre_keys"`
	PreKeys       []domain.KeyID     `yaml:"pre_keys"`
	Contacts      []contactView      `yaml:"contacts"`
}

type ownDeviceView struct {
	ID                   domain.DeviceID `yaml:"id"`
	Label                string          `yaml:"label"`
	Fingerprint          string          `yaml:"fingerprint"`
	LatestSignedPreKeyID domain.KeyID    `yaml:"latest_signed_pre_key_id"`
	LatestPreKeyID       domain.KeyID    `yaml:"latest_pre_key_id"`
}

type signedPreKeyView struct {
	ID      domain.KeyID `yaml:"id"`
	Created string       `yaml:"created,omitempty"`
}

type contactView struct {
	JID     string       `yaml:"jid"`
	Devices []deviceView `yaml:"devices"`
}

type deviceView struct {
	ID                  domain.DeviceID `yaml:"id"`
	Label               string          `yaml:"label,omitempty"`
	HasSession          bool            `yaml:"has_session"`
	UnrespondedSent     int             `yaml:"unresponded_sent"`
	UnrespondedReceived int             `yaml:"unresponded_received"`
	Removed             string          `yaml:"removed,omitempty"`
}

func showCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <account>",
		Short: "Print an account's identity, pre-keys and devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(args[0], func(s *store.Store) error {
				data, err := load(s)
				if err != nil {
					return err
				}
				if raw {
					// Includes private key material.
					spew.Fdump(cmd.OutOrStdout(), data)
					return nil
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(newAccountView(s, data))
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "dump the decoded records, private keys included")
	return cmd
}

func newAccountView(s *store.Store, data domain.OmemoData) accountView {
	v := accountView{
		Account:       s.Account().String(),
		Dir:           s.Dir(),
		SignedPreKeys: []signedPreKeyView{},
		PreKeys:       slices.Sorted(maps.Keys(data.PreKeyPairs)),
		Contacts:      []contactView{},
	}
	if od := data.OwnDevice; od != nil {
		v.OwnDevice = &ownDeviceView{
			ID:                   od.ID,
			Label:                od.Label,
			Fingerprint:          crypto.DisplayFingerprint(od.PublicIdentityKey),
			LatestSignedPreKeyID: od.LatestSignedPreKeyID,
			LatestPreKeyID:       od.LatestPreKeyID,
		}
	}
	for _, id := range slices.Sorted(maps.Keys(data.SignedPreKeyPairs)) {
		v.SignedPreKeys = append(v.SignedPreKeys, signedPreKeyView{
			ID:      id,
			Created: formatTime(data.SignedPreKeyPairs[id].CreationDate),
		})
	}
	for _, jid := range slices.Sorted(maps.Keys(data.Devices)) {
		v.Contacts = append(v.Contacts, newContactView(jid, data.Devices[jid]))
	}
	return v
}

func newContactView(jid string, devices map[domain.DeviceID]domain.Device) contactView {
	cv := contactView{JID: jid}
	for _, id := range slices.Sorted(maps.Keys(devices)) {
		d := devices[id]
		cv.Devices = append(cv.Devices, deviceView{
			ID:                  id,
			Label:               d.Label,
			HasSession:          len(d.Session) > 0,
			UnrespondedSent:     d.UnrespondedSentStanzasCount,
			UnrespondedReceived: d.UnrespondedReceivedStanzasCount,
			Removed:             formatTime(d.RemovalFromDeviceListDate),
		})
	}
	return cv
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
