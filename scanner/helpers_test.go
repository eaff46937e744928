package scanner

import (
	"database/sql/driver"
	"testing"

	"github.com/go-data-exporter/dbrelay"
	relaydriver "github.com/go-data-exporter/dbrelay/driver"
)

func driverConnector(t *testing.T, relay dbrelay.Transport) driver.Connector {
	t.Helper()
	return relaydriver.NewConnector("relay://test", dbrelay.Params{}, dbrelay.WithTransport(relay))
}
