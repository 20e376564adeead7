package config

import (
	"bufio"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/hdt3213/solodis/lib/logger"
)

// Properties holds global config properties
var Properties *ServerProperties

// ServerProperties defines global config properties
type ServerProperties struct {
	Bind           string `cfg:"bind"`
	Port           int    `cfg:"port"`
	AppendOnly     bool   `cfg:"appendonly"`
	AppendFilename string `cfg:"appendfilename"`
	AppendFsync    string `cfg:"appendfsync"`
	MaxClients     int    `cfg:"maxclients"`
	TickInterval   int    `cfg:"tickinterval"`
	Gnet           bool   `cfg:"gnet"`
}

func init() {
	// default config
	Properties = defaultProperties()
}

func defaultProperties() *ServerProperties {
	return &ServerProperties{
		Bind:           "0.0.0.0",
		Port:           6379,
		AppendOnly:     true,
		AppendFilename: "appendonly.aof",
		AppendFsync:    "everysec",
		MaxClients:     10000,
		TickInterval:   100,
	}
}

func parse(src io.Reader) *ServerProperties {
	config := defaultProperties()

	// read config file
	rawMap := make(map[string]string)
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && line[0] == '#' {
			continue
		}
		pivot := strings.IndexAny(line, " ")
		if pivot > 0 && pivot < len(line)-1 { // separator found
			key := line[0:pivot]
			value := strings.Trim(line[pivot+1:], " ")
			rawMap[strings.ToLower(key)] = value
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal(err)
	}

	// map file entries onto struct fields by cfg tag
	t := reflect.TypeOf(config)
	v := reflect.ValueOf(config)
	n := t.Elem().NumField()
	for i := 0; i < n; i++ {
		field := t.Elem().Field(i)
		fieldVal := v.Elem().Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok {
			key = field.Name
		}
		value, ok := rawMap[strings.ToLower(key)]
		if ok {
			switch field.Type.Kind() {
			case reflect.String:
				fieldVal.SetString(value)
			case reflect.Int:
				intValue, err := strconv.ParseInt(value, 10, 64)
				if err == nil {
					fieldVal.SetInt(intValue)
				}
			case reflect.Bool:
				fieldVal.SetBool(toBool(value))
			}
		}
	}
	return config
}

// Setup reads a config file and stores properties into Properties
func Setup(configFilename string) {
	file, err := os.Open(configFilename)
	if err != nil {
		logger.Fatal(err)
	}
	defer file.Close()
	Properties = parse(file)
}

func toBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "t", "y", "1":
		return true
	default:
		return false
	}
}
