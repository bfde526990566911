package azure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorst_SurfacesWorstPerAxis(t *testing.T) {
	a := Status{Transport: TransportOK, HTTP: 200}
	b := Status{Transport: TransportTimeout, HTTP: 200}
	c := Status{Transport: TransportOK, HTTP: 503}

	w := Worst(Worst(a, b), c)
	assert.Equal(t, TransportTimeout, w.Transport)
	assert.Equal(t, 503, w.HTTP)
}

func TestWorst_AllSuccessStaysSuccess(t *testing.T) {
	w := OKStatus()
	for range 3 {
		w = Worst(w, OKStatus())
	}

	assert.True(t, w.OK())
	assert.Equal(t, 200, w.HTTP)
}

func TestWorst_AggregationExample(t *testing.T) {
	// {200, 200, 503} -> 503 on the protocol axis.
	statuses := []Status{
		{Transport: TransportOK, HTTP: 200},
		{Transport: TransportOK, HTTP: 200},
		{Transport: TransportOK, HTTP: 503},
	}

	w := OKStatus()
	for _, st := range statuses {
		w = Worst(w, st)
	}

	assert.Equal(t, 503, w.HTTP)
	assert.False(t, w.OK())
}

func TestOK_Boundaries(t *testing.T) {
	assert.True(t, Status{Transport: TransportOK, HTTP: 200}.OK())
	assert.True(t, Status{Transport: TransportOK, HTTP: 201}.OK())
	assert.False(t, Status{Transport: TransportOK, HTTP: 300}.OK())
	assert.False(t, Status{Transport: TransportRecv, HTTP: 200}.OK())
}
