package visibility

import (
	"reflect"
	"testing"
)

func TestValidViewType(t *testing.T) {
	for _, v := range []ViewType{ViewTypeAll, ViewTypeWaiting, ViewTypeCustom} {
		if !ValidViewType(v) {
			t.Errorf("ValidViewType(%q) = false, want true", v)
		}
	}
	if ValidViewType(ViewType("hidden")) {
		t.Error("ValidViewType(\"hidden\") = true, want false")
	}
	if ValidViewType(ViewType("")) {
		t.Error("the empty view type is not valid")
	}
}

func TestDefaultViewTypeIsWaiting(t *testing.T) {
	// An unconfigured partner must get the narrow default, never "all".
	if DefaultViewType != ViewTypeWaiting {
		t.Errorf("DefaultViewType = %q, want %q", DefaultViewType, ViewTypeWaiting)
	}
}

func TestWaitingAvailabilities(t *testing.T) {
	want := []Availability{AvailabilityImmediate, AvailabilityWithinMonth, AvailabilityWithin3Months}
	if got := WaitingAvailabilities(); !reflect.DeepEqual(got, want) {
		t.Errorf("WaitingAvailabilities() = %v, want %v", got, want)
	}
}

func TestAvailabilityBucket(t *testing.T) {
	if got := BucketAvailable.Availabilities(); !reflect.DeepEqual(got, WaitingAvailabilities()) {
		t.Errorf("available bucket = %v, want the waiting set", got)
	}
	if got := BucketPending.Availabilities(); !reflect.DeepEqual(got, []Availability{AvailabilityAdjustable}) {
		t.Errorf("pending bucket = %v, want [adjustable]", got)
	}
	if got := BucketAll.Availabilities(); got != nil {
		t.Errorf("all bucket should not restrict, got %v", got)
	}
	if got := AvailabilityBucket("").Availabilities(); got != nil {
		t.Errorf("empty bucket should not restrict, got %v", got)
	}
}

func TestListParamsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListParams
		want ListParams
	}{
		{
			name: "zero values get defaults",
			in:   ListParams{},
			want: ListParams{Page: 1, PageSize: DefaultPageSize},
		},
		{
			name: "negative page clamps to 1",
			in:   ListParams{Page: -3, PageSize: 10},
			want: ListParams{Page: 1, PageSize: 10},
		},
		{
			name: "oversized page size clamps to max",
			in:   ListParams{Page: 2, PageSize: 10000},
			want: ListParams{Page: 2, PageSize: MaxPageSize},
		},
		{
			name: "in-range values pass through",
			in:   ListParams{Page: 3, PageSize: 50},
			want: ListParams{Page: 3, PageSize: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.normalize(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
