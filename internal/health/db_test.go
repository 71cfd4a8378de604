package health

import (
	"context"
	"database/sql"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestDBChecker_Creation(t *testing.T) {
	db := &sql.DB{}
	checker := NewDBChecker(db)
	if checker.db != db {
		t.Error("expected checker db to match provided db")
	}
}

type fixedState gobreaker.State

func (s fixedState) State() gobreaker.State { return gobreaker.State(s) }

func TestBreakerChecker(t *testing.T) {
	tests := []struct {
		state   gobreaker.State
		wantErr bool
	}{
		{gobreaker.StateClosed, false},
		{gobreaker.StateHalfOpen, false},
		{gobreaker.StateOpen, true},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			err := NewBreakerChecker(fixedState(tt.state)).HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
