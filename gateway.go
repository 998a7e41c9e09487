package qivivo

import "context"

// Gateway is the Qivivo gateway bridging the radio devices to the internet.
// It only exposes its info.
type Gateway struct {
	device
}

func newGateway(c *Client, id string) *Gateway {
	return &Gateway{
		device: device{client: c, uuid: id, kind: DeviceTypeGateway, subType: "gateways"},
	}
}

func (g *Gateway) load(ctx context.Context) error {
	_, err := g.Info(ctx, true)
	return err
}
