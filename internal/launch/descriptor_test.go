package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptorArgs(t *testing.T) {
	tests := []struct {
		name    string
		desc    Descriptor
		pid     string
		want    []string
		wantErr error
	}{
		{
			name: "run with defaults",
			desc: Descriptor{ApplicationUnit: "org.example.MainVerticle"},
			want: []string{"run", "org.example.MainVerticle", ArgLauncherClass, DefaultLauncher},
		},
		{
			name: "run with default redeploy pattern and conf",
			desc: Descriptor{
				Launcher:        "org.example.Launcher",
				ApplicationUnit: "org.example.MainVerticle",
				Redeploy:        true,
				BaseDir:         "/base",
				ConfigPath:      "conf/application.json",
			},
			want: []string{
				"run", "org.example.MainVerticle",
				ArgLauncherClass, "org.example.Launcher",
				"--redeploy=/base/src/**/*.java",
				ArgConf, "conf/application.json",
			},
		},
		{
			name: "explicit redeploy patterns",
			desc: Descriptor{Redeploy: true, RedeployPatterns: []string{"src/**/*.java", "src/main/resources/*"}},
			want: []string{"run", ArgLauncherClass, DefaultLauncher, "--redeploy=src/**/*.java,src/main/resources/*"},
		},
		{
			name: "empty pattern list means default",
			desc: Descriptor{Redeploy: true, RedeployPatterns: []string{}},
			want: []string{"run", ArgLauncherClass, DefaultLauncher, "--redeploy=" + DefaultRedeployPattern},
		},
		{
			name: "start does not redeploy",
			desc: Descriptor{Command: CommandStart, ApplicationUnit: "app.Main", Redeploy: true, ConfigPath: "c.json", ExtraArgs: []string{"-cluster"}},
			want: []string{"start", "app.Main", ArgLauncherClass, DefaultLauncher, ArgConf, "c.json", "-cluster"},
		},
		{
			name: "stop drops unit and conf and appends pid",
			desc: Descriptor{Command: CommandStop, ApplicationUnit: "app.Main", ConfigPath: "c.json", Redeploy: true, ExtraArgs: []string{"-cluster"}},
			pid:  "4242",
			want: []string{"stop", ArgLauncherClass, DefaultLauncher, "4242"},
		},
		{
			name:    "stop without pid",
			desc:    Descriptor{Command: CommandStop},
			wantErr: ErrMissingPID,
		},
		{
			name:    "unknown command",
			desc:    Descriptor{Command: "restart"},
			wantErr: ErrInvalidCommand,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			got, err := tt.desc.Args(tt.pid)
			if tt.wantErr != nil {
				r.ErrorIs(err, tt.wantErr)
				return
			}
			r.NoError(err)
			r.Equal(tt.want, got)
		})
	}
}

func TestDescriptorRejectsInvalidPattern(t *testing.T) {
	r := require.New(t)
	_, err := Descriptor{Redeploy: true, RedeployPatterns: []string{"src/[a"}}.Args("")
	r.ErrorContains(err, "invalid redeploy pattern")
}
