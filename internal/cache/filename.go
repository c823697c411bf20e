package cache

import (
	"crypto/md5"
	"math/big"
)

// twoTo128 用于把 MD5 摘要按有符号 128 位整数解释。
var twoTo128 = new(big.Int).Lsh(big.NewInt(1), 128)

// FilenameFor 把键的字符串形式映射为稳定的文件名：MD5 摘要按大端有符号整数解释，
// 取绝对值后以 36 进制输出。不同键哈希冲突时不会做逐字节校验。
func FilenameFor(name string) string {
	sum := md5.Sum([]byte(name))
	n := new(big.Int).SetBytes(sum[:])
	if sum[0]&0x80 != 0 {
		n.Sub(n, twoTo128)
	}
	return n.Abs(n).Text(36)
}
