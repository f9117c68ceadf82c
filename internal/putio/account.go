package putio

import (
	"context"
	"fmt"
)

// Account is the subset of /account/info the CLI displays.
type Account struct {
	Username  string
	Email     string
	DiskUsed  int64
	DiskAvail int64
	DiskSize  int64
}

type accountInfoResponse struct {
	Info struct {
		Username string `json:"username"`
		Mail     string `json:"mail"`
		Disk     struct {
			Avail int64 `json:"avail"`
			Used  int64 `json:"used"`
			Size  int64 `json:"size"`
		} `json:"disk"`
	} `json:"info"`
}

// AccountInfo returns the authenticated account. It doubles as a token
// check: an invalid token fails with ErrUnauthorized.
func (c *Client) AccountInfo(ctx context.Context) (*Account, error) {
	var r accountInfoResponse
	if err := c.getJSON(ctx, "/account/info", &r); err != nil {
		return nil, fmt.Errorf("putio: fetching account info: %w", err)
	}

	return &Account{
		Username:  r.Info.Username,
		Email:     r.Info.Mail,
		DiskUsed:  r.Info.Disk.Used,
		DiskAvail: r.Info.Disk.Avail,
		DiskSize:  r.Info.Disk.Size,
	}, nil
}
