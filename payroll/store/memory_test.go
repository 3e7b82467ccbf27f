package store_test

import (
	"testing"

	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/payroll/store"
	"github.com/warp/worklog/payroll/store/storetest"
)

func TestMemory_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) payroll.Store { return store.NewMemory() })
}
