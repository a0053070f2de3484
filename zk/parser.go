package zk

import (
	"fmt"
	"regexp"
	"strings"
)

// Info srvr/stat 响应中的键值信息，键统一为小写
type Info map[string]string

// 常用的 info 键
const (
	InfoZxid        = "zxid"
	InfoMode        = "mode"
	InfoConnections = "connections"
)

// Mode 返回节点角色，缺失时为 ModeUnknown
func (i Info) Mode() Mode {
	if m, ok := i[InfoMode]; ok && m != "" {
		return Mode(m)
	}
	return ModeUnknown
}

// Zxid 返回最近一次事务 ID
func (i Info) Zxid() string {
	return i[InfoZxid]
}

func (i Info) clone() Info {
	out := make(Info, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// ParseInfo 解析 srvr 风格的 "key: value" 行
//
// 每行按第一个 ':' 切分，键取左侧第一个空格前的部分并转为小写，值去除首尾空白。
// 左侧或右侧为空的行被跳过，同名键以最后一次出现为准。mode 值转为大写。
// 非空行缺少 ':'、缺少 mode、缺少 zxid 或 mode 不是 LEADER/FOLLOWER 时返回 ErrInvalidInfo，
// 此时仍返回已解析的部分结果。
func ParseInfo(lines []string) (Info, error) {
	result := make(Info)
	for _, line := range lines {
		left, right, found := strings.Cut(line, ":")
		if left == "" {
			continue
		}
		if !found {
			return result, fmt.Errorf("%w: parse: no separator in line %q", ErrInvalidInfo, line)
		}
		if right == "" {
			continue
		}
		key := strings.Split(strings.TrimSpace(left), " ")[0]
		result[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(right)
	}

	mode, ok := result[InfoMode]
	if !ok {
		return result, fmt.Errorf("%w: parse: missing %s", ErrInvalidInfo, InfoMode)
	}
	result[InfoMode] = strings.ToUpper(mode)

	if err := validateInfo(result); err != nil {
		return result, err
	}
	return result, nil
}

func validateInfo(info Info) error {
	if _, ok := info[InfoZxid]; !ok {
		return fmt.Errorf("%w: validate: missing %s", ErrInvalidInfo, InfoZxid)
	}
	if !info.Mode().Valid() {
		return fmt.Errorf("%w: validate: mode %q", ErrInvalidInfo, info[InfoMode])
	}
	return nil
}

// Client stat 响应中的一条客户端连接记录，字段保留原始字符串
type Client struct {
	Host   string `json:"host"`
	Port   string `json:"port"`
	N      string `json:"n"`
	Queued string `json:"queued"`
	Recved string `json:"recved"`
	Sent   string `json:"sent"`
}

// StatData stat 响应中的结构化部分
type StatData struct {
	Head    string   `json:"head"`
	Clients []Client `json:"clients"`
}

const statHeadPrefix = "Zookeeper"

var clientPattern = regexp.MustCompile(`/([\.0-9]{7,}):(\d+)\[(\d+)\]\(queued=(\d+),recved=(\d+),sent=(\d+)\)`)

// statParser 按行拆分 stat 响应，match 返回捕获组（不含整体匹配），未匹配时返回 nil
type statParser struct {
	match func(line string) []string
}

var defaultStatParser = statParser{match: func(line string) []string {
	m := clientPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return m[1:]
}}

// ParseStat 解析 stat 响应
//
// 每行去除首尾空白后归入且仅归入一处：以 "Zookeeper" 开头的行作为 head（最后一次出现为准），
// 匹配客户端格式的行解析为 Client，捕获组数量不符的行进入 errs，其余行进入 notParsed。
// notParsed 通常再交给 ParseInfo 以提取 mode、zxid 等字段。
func ParseStat(lines []string) (data StatData, notParsed, errs []string) {
	return defaultStatParser.parse(lines)
}

func (p statParser) parse(lines []string) (data StatData, notParsed, errs []string) {
	data.Clients = []Client{}
	notParsed = []string{}
	errs = []string{}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, statHeadPrefix) {
			data.Head = line
			continue
		}
		groups := p.match(line)
		if groups == nil {
			notParsed = append(notParsed, line)
			continue
		}
		if len(groups) != 6 {
			errs = append(errs, line)
			continue
		}
		data.Clients = append(data.Clients, Client{
			Host:   groups[0],
			Port:   groups[1],
			N:      groups[2],
			Queued: groups[3],
			Recved: groups[4],
			Sent:   groups[5],
		})
	}
	return data, notParsed, errs
}

// ParseEnvi 解析 envi 响应中的 "key=value" 行，没有 '=' 或键为空的行被忽略
func ParseEnvi(lines []string) map[string]string {
	env := make(map[string]string)
	for _, line := range lines {
		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		env[key] = strings.TrimSpace(value)
	}
	return env
}

// splitLines 按 '\n' 切分原始响应
func splitLines(data []byte) []string {
	return strings.Split(string(data), "\n")
}
