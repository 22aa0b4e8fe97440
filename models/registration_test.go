package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanUploadProof(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{PaymentPendingUpload, true},
		{PaymentRejected, true},
		{PaymentPendingApproval, false},
		{PaymentApproved, false},
		{PaymentNotRequired, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			r := &Registration{PaymentStatus: tt.status}
			assert.Equal(t, tt.want, r.CanUploadProof())
		})
	}
}

func TestAllCollected(t *testing.T) {
	empty := &Registration{}
	assert.True(t, empty.AllCollected())

	partial := &Registration{ItemsOrdered: []OrderLine{
		{ItemName: "Hoodie", Collected: true},
		{ItemName: "Mug", Collected: false},
	}}
	assert.False(t, partial.AllCollected())

	done := &Registration{ItemsOrdered: []OrderLine{
		{ItemName: "Hoodie", Collected: true},
		{ItemName: "Mug", Collected: true},
	}}
	assert.True(t, done.AllCollected())
}
