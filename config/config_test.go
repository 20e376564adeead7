package config

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	src := `
# comment line
bind 127.0.0.1
port 7000
appendonly no
appendfsync always
tickinterval 50
gnet yes
`
	props := parse(strings.NewReader(src))
	if props.Bind != "127.0.0.1" {
		t.Errorf("bind = %s", props.Bind)
	}
	if props.Port != 7000 {
		t.Errorf("port = %d", props.Port)
	}
	if props.AppendOnly {
		t.Error("appendonly should be off")
	}
	if props.AppendFsync != "always" {
		t.Errorf("appendfsync = %s", props.AppendFsync)
	}
	if props.TickInterval != 50 {
		t.Errorf("tickinterval = %d", props.TickInterval)
	}
	if !props.Gnet {
		t.Error("gnet should be on")
	}
}

func TestDefaults(t *testing.T) {
	props := parse(strings.NewReader(""))
	if props.Port != 6379 {
		t.Errorf("default port = %d", props.Port)
	}
	if props.AppendFilename != "appendonly.aof" {
		t.Errorf("default appendfilename = %s", props.AppendFilename)
	}
	if props.AppendFsync != "everysec" {
		t.Errorf("default appendfsync = %s", props.AppendFsync)
	}
}
