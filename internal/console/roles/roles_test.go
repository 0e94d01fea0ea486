package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "viewer", want: Viewer},
		{in: " Manager ", want: Manager},
		{in: "ADMIN", want: Admin},
		{in: "owner", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, must(Parse(got.String())))
		})
	}
}

func must(r Role, err error) Role {
	if err != nil {
		panic(err)
	}
	return r
}

func TestOrder(t *testing.T) {
	t.Parallel()

	require.Equal(t, -1, Compare(Viewer, Manager))
	require.Equal(t, 0, Compare(Admin, Admin))
	require.Equal(t, 1, Compare(Admin, Manager))
	require.True(t, Manager.AtLeast(Viewer))
	require.True(t, Manager.AtLeast(Manager))
	require.False(t, Viewer.AtLeast(Manager))
	require.False(t, None.AtLeast(Viewer))

	all := All()
	for i := 1; i < len(all); i++ {
		require.Equal(t, -1, Compare(all[i-1], all[i]))
	}
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	require.True(t, Allowed(&invsdk.User{Role: "manager"}, MinBulkUpload))
	require.False(t, Allowed(&invsdk.User{Role: "manager"}, MinRoleAssign))
	require.True(t, Allowed(&invsdk.User{Role: "admin"}, MinRoleAssign))
	require.False(t, Allowed(&invsdk.User{Role: "viewer"}, MinItemWrite))
	require.False(t, Allowed(&invsdk.User{Role: "janitor"}, MinItemWrite))
	require.False(t, Allowed(nil, Viewer))
}

type fakeSetter struct {
	calls  []Change
	failOn int64
}

func (f *fakeSetter) SetUserRole(_ context.Context, userID int64, role string) (*invsdk.SetRoleResponse, error) {
	if userID == f.failOn {
		return nil, errors.New("boom")
	}
	r, err := Parse(role)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, Change{UserID: userID, Role: r})
	return &invsdk.SetRoleResponse{Status: "ok", Role: role}, nil
}

func TestPending(t *testing.T) {
	t.Parallel()

	t.Run("stage and draft", func(t *testing.T) {
		t.Parallel()
		p := NewPending()
		require.NoError(t, p.Stage(3, Viewer, Admin))
		require.NoError(t, p.Stage(3, Viewer, Manager))
		require.Equal(t, Manager, p.Draft(3, Viewer))
		require.Equal(t, Viewer, p.Draft(4, Viewer))

		require.NoError(t, p.Stage(3, Viewer, Viewer))
		require.Zero(t, p.Len(), "reverting to the current role unstages")

		require.Error(t, p.Stage(3, Viewer, None))
	})

	t.Run("apply in user id order and clear", func(t *testing.T) {
		t.Parallel()
		p := NewPending()
		require.NoError(t, p.Stage(9, Viewer, Admin))
		require.NoError(t, p.Stage(2, Admin, Viewer))
		require.NoError(t, p.Stage(5, Viewer, Manager))

		setter := &fakeSetter{}
		applied, err := p.Apply(context.Background(), setter)
		require.NoError(t, err)
		require.Equal(t, 3, applied)
		require.Equal(t, []Change{{2, Viewer}, {5, Manager}, {9, Admin}}, setter.calls)
		require.Zero(t, p.Len())
	})

	t.Run("failure keeps the rest staged", func(t *testing.T) {
		t.Parallel()
		p := NewPending()
		require.NoError(t, p.Stage(1, Viewer, Manager))
		require.NoError(t, p.Stage(2, Viewer, Manager))
		require.NoError(t, p.Stage(3, Viewer, Manager))

		applied, err := p.Apply(context.Background(), &fakeSetter{failOn: 2})
		require.Error(t, err)
		require.Contains(t, err.Error(), "user 2")
		require.Equal(t, 1, applied)
		require.Equal(t, []Change{{2, Manager}, {3, Manager}}, p.Changes())
	})

	t.Run("nothing staged", func(t *testing.T) {
		t.Parallel()
		applied, err := NewPending().Apply(context.Background(), &fakeSetter{})
		require.NoError(t, err)
		require.Zero(t, applied)
	})
}
