package macho

import "testing"

func TestArchName(t *testing.T) {
	tests := []struct {
		name    string
		cpu     Cpu
		subCpu  uint32
		want    string
		wantErr bool
	}{
		{name: "x86_64", cpu: CpuAmd64, subCpu: 3, want: "x86_64"},
		{name: "x86_64h", cpu: CpuAmd64, subCpu: 8, want: "x86_64h"},
		{name: "x86_64 lib64 capability bit", cpu: CpuAmd64, subCpu: 3 | 0x80000000, want: "x86_64"},
		{name: "arm64", cpu: CpuArm64, subCpu: 0, want: "arm64"},
		{name: "arm64 v8", cpu: CpuArm64, subCpu: 1, want: "arm64"},
		{name: "arm64e", cpu: CpuArm64, subCpu: 2, want: "arm64e"},
		{name: "arm64e versioned ABI", cpu: CpuArm64, subCpu: 2 | 0x80000000, want: "arm64e"},
		{name: "i386", cpu: Cpu386, subCpu: 3, want: "i386"},
		{name: "arm32 is unhandled", cpu: CpuArm, subCpu: 9, wantErr: true},
		{name: "ppc is unhandled", cpu: 18, subCpu: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Slice{FileHeader: FileHeader{Cpu: tt.cpu, SubCpu: tt.subCpu}}
			got, err := s.ArchName()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ArchName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ArchName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureTargetArch(t *testing.T) {
	tests := []struct {
		name   string
		isFat  bool
		archs  []string
		target string
		want   Decision
	}{
		{name: "universal2 satisfied by fat", isFat: true, archs: []string{"x86_64", "arm64"}, target: "universal2", want: Satisfied},
		{name: "universal2 incompatible with thin arm64", isFat: false, archs: []string{"arm64"}, target: "universal2", want: Incompatible},
		{name: "universal2 incompatible with thin x86_64", isFat: false, archs: []string{"x86_64"}, target: "universal2", want: Incompatible},
		{name: "thin match", isFat: false, archs: []string{"arm64"}, target: "arm64", want: Satisfied},
		{name: "thin mismatch", isFat: false, archs: []string{"x86_64"}, target: "arm64", want: Incompatible},
		{name: "fat contains target", isFat: true, archs: []string{"x86_64", "arm64"}, target: "x86_64", want: RequiresThinning},
		{name: "fat missing target", isFat: true, archs: []string{"x86_64", "arm64"}, target: "arm64e", want: Incompatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureTargetArch(tt.isFat, tt.archs, tt.target); got != tt.want {
				t.Errorf("EnsureTargetArch() = %v, want %v", got, tt.want)
			}
		})
	}
}
