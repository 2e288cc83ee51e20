package portscan

// CommonPorts is scanned in this order; ScanAll takes a prefix of it.
var CommonPorts = []int{
	21, 22, 23, 25, 53, 80, 81, 110, 111, 135, 139, 143,
	443, 445, 465, 514, 587, 593, 631, 636, 993, 995,
	1080, 1433, 1434, 1521, 1723, 2082, 2083, 2086, 2087,
	2095, 2096, 3306, 3389, 3690, 5432, 5800, 5801, 5900,
	5901, 5984, 5985, 5986, 6379, 7000, 7001, 7002, 8080,
	8081, 8443, 8888, 9000, 9090, 9200, 9300, 10000, 11211,
	27017, 27018, 27019, 50000, 50001,
}

var services = map[int]string{
	21: "FTP", 22: "SSH", 23: "Telnet", 25: "SMTP", 53: "DNS",
	80: "HTTP", 81: "HTTP-alt", 110: "POP3", 111: "RPC",
	135: "RPC", 139: "NetBIOS", 143: "IMAP", 443: "HTTPS",
	445: "SMB", 465: "SMTPS", 514: "Syslog", 587: "SMTP",
	593: "RPC", 631: "IPP", 636: "LDAPS", 993: "IMAPS",
	995: "POP3S", 1080: "SOCKS", 1433: "MSSQL", 1434: "MSSQL",
	1521: "Oracle", 1723: "PPTP", 2082: "cPanel", 2083: "cPanel SSL",
	2086: "WHM", 2087: "WHM SSL", 2095: "cPanel Webmail",
	2096: "cPanel Webmail SSL", 3306: "MySQL", 3389: "RDP",
	3690: "SVN", 5432: "PostgreSQL", 5800: "VNC", 5801: "VNC",
	5900: "VNC", 5901: "VNC", 5984: "CouchDB", 5985: "WinRM",
	5986: "WinRM SSL", 6379: "Redis", 7000: "Cassandra",
	7001: "Cassandra", 7002: "Cassandra", 8080: "HTTP-alt",
	8081: "HTTP-alt", 8443: "HTTPS-alt", 8888: "HTTP-proxy",
	9000: "HTTP-alt", 9090: "HTTP-alt", 9200: "Elasticsearch",
	9300: "Elasticsearch", 10000: "Webmin", 11211: "Memcached",
	27017: "MongoDB", 27018: "MongoDB", 27019: "MongoDB",
	50000: "DB2", 50001: "DB2",
}

// ServiceName returns the conventional service on port, or "Unknown".
func ServiceName(port int) string {
	if name, ok := services[port]; ok {
		return name
	}
	return "Unknown"
}

// Exposed reports whether a service on port should not normally be
// reachable from the internet.
func Exposed(port int) bool {
	switch port {
	case 23, 135, 139, 445, 1433, 1434, 1521, 3306, 3389, 5432,
		5900, 5901, 5984, 6379, 9200, 9300, 11211, 27017, 27018, 27019:
		return true
	}
	return false
}
