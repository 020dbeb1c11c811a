package macho

import (
	"bytes"
	"os"
	"testing"
)

func TestVersionPacking(t *testing.T) {
	tests := []struct {
		ver    Version
		packed uint32
	}{
		{Version{0, 0, 0}, 0},
		{Version{10, 13, 0}, 0x000a0d00},
		{Version{11, 3, 1}, 0x000b0301},
		{Version{255, 255, 255}, 0x00ffffff},
	}
	for _, tt := range tests {
		t.Run(tt.ver.String(), func(t *testing.T) {
			packed, err := tt.ver.pack()
			if err != nil {
				t.Fatal(err)
			}
			if packed != tt.packed {
				t.Errorf("pack() = %#x, want %#x", packed, tt.packed)
			}
			if got := unpackVersion(tt.packed); got != tt.ver {
				t.Errorf("unpackVersion(%#x) = %v, want %v", tt.packed, got, tt.ver)
			}
		})
	}
}

func TestSetSDKVersionRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		conf testSlice
	}{
		{name: "build version command", conf: testSlice{cpu: CpuArm64, sdk: packVer(11, 0, 0)}},
		{name: "version min command", conf: testSlice{cpu: CpuAmd64, subCpu: 3, versionMin: true, sdk: packVer(10, 13, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, buildSlice(t, tt.conf))

			want := Version{Major: 12, Minor: 4, Revision: 1}
			if err := SetSDKVersion(path, want); err != nil {
				t.Fatal(err)
			}
			got, err := GetSDKVersion(path)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("GetSDKVersion() after set = %v, want %v", got, want)
			}
		})
	}
}

func TestSetSDKVersionOnlyFirstSlice(t *testing.T) {
	path := writeFixture(t, buildFat(t,
		testSlice{cpu: CpuAmd64, subCpu: 3, sdk: packVer(11, 1, 0)},
		testSlice{cpu: CpuArm64, sdk: packVer(11, 1, 0)},
	))

	if err := SetSDKVersion(path, Version{Major: 13, Minor: 0, Revision: 0}); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.Slices[1].versionCommand()
	if err != nil {
		t.Fatal(err)
	}
	if sdk := unpackVersion(second.(*BuildVersion).Sdk); sdk != (Version{11, 1, 0}) {
		t.Errorf("second slice sdk = %v, want 11.1.0 (must stay untouched)", sdk)
	}
}

func TestSetSDKVersionValidation(t *testing.T) {
	data := buildSlice(t, testSlice{cpu: CpuAmd64, subCpu: 3, sdk: packVer(11, 0, 0)})
	path := writeFixture(t, data)

	tests := []Version{
		{Major: 256, Minor: 0, Revision: 0},
		{Major: 0, Minor: -1, Revision: 0},
		{Major: 0, Minor: 0, Revision: 1000},
	}
	for _, v := range tests {
		t.Run(v.String(), func(t *testing.T) {
			if err := SetSDKVersion(path, v); err == nil {
				t.Fatal("SetSDKVersion() accepted an out-of-range component")
			}
		})
	}

	// the file must not have been touched by the failed attempts
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("SetSDKVersion() modified the file despite failing validation")
	}
}

func TestGetMinOSVersion(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Version
	}{
		{
			name: "thin build version",
			data: buildSlice(t, testSlice{cpu: CpuArm64, minos: packVer(11, 0, 0)}),
			want: Version{11, 0, 0},
		},
		{
			name: "thin version min",
			data: buildSlice(t, testSlice{cpu: CpuAmd64, subCpu: 3, versionMin: true, minos: packVer(10, 9, 0)}),
			want: Version{10, 9, 0},
		},
		{
			name: "fat selects smallest across slices",
			data: buildFat(t,
				testSlice{cpu: CpuAmd64, subCpu: 3, versionMin: true, minos: packVer(10, 13, 0)},
				testSlice{cpu: CpuArm64, minos: packVer(11, 0, 0)},
			),
			want: Version{10, 13, 0},
		},
		{
			name: "fat selects smallest regardless of order",
			data: buildFat(t,
				testSlice{cpu: CpuArm64, minos: packVer(11, 0, 0)},
				testSlice{cpu: CpuAmd64, subCpu: 3, minos: packVer(10, 15, 4)},
			),
			want: Version{10, 15, 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetMinOSVersion(writeFixture(t, tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("GetMinOSVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVersionCommandInvariant(t *testing.T) {
	tests := []struct {
		name string
		conf testSlice
	}{
		{name: "no version command", conf: testSlice{cpu: CpuAmd64, subCpu: 3, noVer: true}},
		{name: "duplicate version commands", conf: testSlice{cpu: CpuAmd64, subCpu: 3, extraVer: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, buildSlice(t, tt.conf))
			if _, err := GetSDKVersion(path); err == nil {
				t.Error("GetSDKVersion() did not enforce the single version command invariant")
			}
			if _, err := GetMinOSVersion(path); err == nil {
				t.Error("GetMinOSVersion() did not enforce the single version command invariant")
			}
		})
	}
}
