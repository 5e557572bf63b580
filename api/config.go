package api

import (
	"flag"
	"net"

	"github.com/grafana/globalconf"
	log "github.com/sirupsen/logrus"
)

var (
	Addr       = ":6060"
	UseSSL     bool
	useGzip    = true
	certFile   string
	keyFile    string
	authSecret string
	logHeaders bool
	maxReadLen int64 = 64 * 1024
)

func ConfigSetup() {
	apiCfg := flag.NewFlagSet("http", flag.ExitOnError)
	apiCfg.StringVar(&Addr, "listen", Addr, "http listener address.")
	apiCfg.BoolVar(&UseSSL, "ssl", false, "use HTTPS")
	apiCfg.StringVar(&certFile, "cert-file", "", "SSL certificate file")
	apiCfg.StringVar(&keyFile, "key-file", "", "SSL key file")
	apiCfg.BoolVar(&useGzip, "gzip", useGzip, "use GZIP compression of all responses")
	apiCfg.StringVar(&authSecret, "auth-secret", "", "HS256 secret to verify bearer tokens on the reportInterval endpoint. empty disables auth")
	apiCfg.BoolVar(&logHeaders, "log-headers", false, "include request headers in the request log")
	apiCfg.Int64Var(&maxReadLen, "max-read-size", maxReadLen, "max size in bytes of a pushed meter read")
	globalconf.Register("http", apiCfg, flag.ExitOnError)
}

func ConfigProcess() {
	//validate the addr
	_, err := net.ResolveTCPAddr("tcp", Addr)
	if err != nil {
		log.Fatal("API listen address is not a valid TCP address.")
	}
	if UseSSL && (certFile == "" || keyFile == "") {
		log.Fatal("API: ssl requires cert-file and key-file")
	}
	if maxReadLen <= 0 {
		log.Fatal("API: max-read-size must be positive")
	}
}
