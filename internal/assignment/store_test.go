package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
)

func validInfo() Info {
	return Info{
		Responsible: "Ahmet Yılmaz",
		Email:       "ahmet@bupilic.com.tr",
		Phone:       "0555 123 45 67",
		Department:  "Satış",
	}
}

func TestAssignCreatesRecord(t *testing.T) {
	store := NewStore(nil, 0)

	record, err := store.Assign("6", validInfo())
	require.NoError(t, err)

	assert.Equal(t, "06", record.Vehicle)
	assert.Equal(t, "Ahmet Yılmaz", record.Responsible)
	assert.Equal(t, StatusActive, record.Status)
	assert.False(t, record.AssignedAt.IsZero())

	got, err := store.Get("06")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	// "6" and "06" address the same vehicle.
	got, err = store.Get("6")
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestAssignRejectsBadVehicle(t *testing.T) {
	store := NewStore(nil, 0)

	for _, vehicle := range []string{"0", "100", "abc", ""} {
		_, err := store.Assign(vehicle, validInfo())
		require.Error(t, err, vehicle)
		assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput), vehicle)
	}
}

func TestAssignValidation(t *testing.T) {
	store := NewStore(nil, 0)

	tests := []struct {
		name   string
		mutate func(*Info)
	}{
		{"missing responsible", func(i *Info) { i.Responsible = "" }},
		{"one letter responsible", func(i *Info) { i.Responsible = "A" }},
		{"digits in responsible", func(i *Info) { i.Responsible = "Ahmet 42" }},
		{"bad email", func(i *Info) { i.Email = "not-an-email" }},
		{"short phone", func(i *Info) { i.Phone = "12345" }},
		{"foreign phone", func(i *Info) { i.Phone = "+44 20 7946 0958" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := validInfo()
			tt.mutate(&info)
			_, err := store.Assign("1", info)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))
		})
	}
}

func TestAssignAcceptsPhoneVariants(t *testing.T) {
	store := NewStore(nil, 0)

	for _, phone := range []string{
		"05551234567",
		"+90 555 123 45 67",
		"0 (232) 123 45 67",
		"5551234567",
	} {
		info := validInfo()
		info.Phone = phone
		_, err := store.Assign("1", info)
		assert.NoError(t, err, phone)
	}
}

func TestReassignKeepsAssignedAtAndRecordsPreImage(t *testing.T) {
	store := NewStore(nil, 0)

	first, err := store.Assign("3", validInfo())
	require.NoError(t, err)

	second := validInfo()
	second.Responsible = "Mehmet Demir"
	record, err := store.Assign("03", second)
	require.NoError(t, err)

	assert.Equal(t, first.AssignedAt, record.AssignedAt)
	assert.Equal(t, "Mehmet Demir", record.Responsible)

	events := store.History("3", 0)
	require.Len(t, events, 2)
	assert.Equal(t, ActionChanged, events[0].Action)
	assert.Equal(t, "Ahmet Yılmaz", events[0].Snapshot.Responsible)
	assert.Equal(t, ActionAssigned, events[1].Action)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestUpdatePatchesFields(t *testing.T) {
	store := NewStore(nil, 0)
	_, err := store.Assign("7", validInfo())
	require.NoError(t, err)

	notes := "izinli, hafta sonu aranmasın"
	inactive := StatusInactive
	record, err := store.Update("7", Patch{Notes: &notes, Status: &inactive})
	require.NoError(t, err)

	assert.Equal(t, notes, record.Notes)
	assert.Equal(t, StatusInactive, record.Status)
	assert.Equal(t, "Ahmet Yılmaz", record.Responsible)

	badStatus := Status("paused")
	_, err = store.Update("7", Patch{Status: &badStatus})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))

	badEmail := "nope"
	_, err = store.Update("7", Patch{Email: &badEmail})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))

	_, err = store.Update("9", Patch{Notes: &notes})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUnassign(t *testing.T) {
	store := NewStore(nil, 0)
	_, err := store.Assign("5", validInfo())
	require.NoError(t, err)

	require.NoError(t, store.Unassign("5", "rota kapatıldı"))

	_, err = store.Get("5")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	events := store.History("5", 0)
	require.Len(t, events, 2)
	assert.Equal(t, ActionRemoved, events[0].Action)
	assert.Equal(t, "rota kapatıldı", events[0].Reason)
	assert.Equal(t, "Ahmet Yılmaz", events[0].Snapshot.Responsible)

	assert.True(t, apperrors.IsKind(store.Unassign("5", ""), apperrors.KindNotFound))
}

func TestHistoryFilterAndLimit(t *testing.T) {
	store := NewStore(nil, 0)
	_, err := store.Assign("1", validInfo())
	require.NoError(t, err)
	_, err = store.Assign("2", validInfo())
	require.NoError(t, err)
	_, err = store.Assign("1", validInfo())
	require.NoError(t, err)

	all := store.History("", 0)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "01", all[0].Vehicle)
	assert.Equal(t, ActionChanged, all[0].Action)

	only1 := store.History("1", 0)
	require.Len(t, only1, 2)

	limited := store.History("", 2)
	assert.Len(t, limited, 2)
}

func TestHistoryCap(t *testing.T) {
	store := NewStore(nil, 3)

	for _, vehicle := range []string{"1", "2", "3", "4", "5"} {
		_, err := store.Assign(vehicle, validInfo())
		require.NoError(t, err)
	}

	events := store.History("", 0)
	require.Len(t, events, 3)
	// The two oldest events were trimmed.
	assert.Equal(t, "05", events[0].Vehicle)
	assert.Equal(t, "03", events[2].Vehicle)
}

func TestWorkloads(t *testing.T) {
	store := NewStore(nil, 0)

	ahmet := validInfo()
	mehmet := validInfo()
	mehmet.Responsible = "Mehmet Demir"

	for _, vehicle := range []string{"1", "2", "3"} {
		_, err := store.Assign(vehicle, ahmet)
		require.NoError(t, err)
	}
	_, err := store.Assign("4", mehmet)
	require.NoError(t, err)

	inactive := StatusInactive
	_, err = store.Update("2", Patch{Status: &inactive})
	require.NoError(t, err)

	workloads := store.Workloads()
	require.Len(t, workloads, 2)

	assert.Equal(t, "Ahmet Yılmaz", workloads[0].Responsible)
	assert.Equal(t, 3, workloads[0].Count)
	assert.Equal(t, []string{"01", "02", "03"}, workloads[0].Vehicles)
	assert.Equal(t, 2, workloads[0].Active)
	assert.Equal(t, 1, workloads[0].Inactive)

	assert.Equal(t, "Mehmet Demir", workloads[1].Responsible)
	assert.Equal(t, 1, workloads[1].Count)
}

func TestSearchTurkishFolding(t *testing.T) {
	store := NewStore(nil, 0)

	info := validInfo()
	info.Department = "İZMİR Satış"
	_, err := store.Assign("1", info)
	require.NoError(t, err)

	other := validInfo()
	other.Responsible = "Mehmet Demir"
	_, err = store.Assign("2", other)
	require.NoError(t, err)

	matches := store.Search("izmir")
	require.Len(t, matches, 1)
	assert.Equal(t, "01", matches[0].Vehicle)

	matches = store.Search("YILMAZ")
	assert.Len(t, matches, 2)

	assert.Len(t, store.Search(""), 2)
	assert.Empty(t, store.Search("ankara"))
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	store := NewStore(nil, 0)
	_, err := store.Assign("1", validInfo())
	require.NoError(t, err)

	snap := store.Snapshot()

	// Mutating the snapshot must not touch the store.
	snap.Assignments["01"] = Record{Vehicle: "01", Responsible: "Tampered"}
	got, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Ahmet Yılmaz", got.Responsible)

	restored := NewStore(nil, 0)
	restored.Restore(store.Snapshot())

	got, err = restored.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Ahmet Yılmaz", got.Responsible)
	assert.Len(t, restored.History("", 0), 1)
}

func TestStoreClockInjection(t *testing.T) {
	store := NewStore(nil, 0)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	record, err := store.Assign("1", validInfo())
	require.NoError(t, err)
	assert.Equal(t, fixed, record.AssignedAt)
	assert.Equal(t, fixed, record.UpdatedAt)
}
