package shamir

// Arithmetic in GF(2^8) with the AES reduction polynomial x^8+x^4+x^3+x+1.

func gfAdd(a, b byte) byte {
	return a ^ b
}

func gfMul(a, b byte) byte {
	var p byte
	for b > 0 {
		if b&1 == 1 {
			p ^= a
		}
		carry := a & 0x80
		a <<= 1
		if carry != 0 {
			a ^= 0x1b
		}
		b >>= 1
	}
	return p
}

// gfInv computes the multiplicative inverse as a^254. gfInv(0) is 0; callers
// must never divide by zero.
func gfInv(a byte) byte {
	var r byte = 1
	var base = a
	// Square-and-multiply over the bits of 254 (0b11111110), MSB first.
	for i := 7; i >= 0; i-- {
		r = gfMul(r, r)
		if (254>>uint(i))&1 == 1 {
			r = gfMul(r, base)
		}
	}
	return r
}

func gfDiv(a, b byte) byte {
	return gfMul(a, gfInv(b))
}

// polyEval evaluates a polynomial with the given coefficients (constant term
// first) at x, using Horner's method.
func polyEval(coefficients []byte, x byte) byte {
	var y byte
	for i := len(coefficients) - 1; i >= 0; i-- {
		y = gfAdd(gfMul(y, x), coefficients[i])
	}
	return y
}

// interpolateAtZero computes the Lagrange interpolation of the points at x=0.
// The x values must be distinct and non-zero.
func interpolateAtZero(xs, ys []byte) byte {
	var secret byte
	for i := range xs {
		basis := byte(1)
		for j := range xs {
			if i == j {
				continue
			}
			basis = gfMul(basis, gfDiv(xs[j], gfAdd(xs[j], xs[i])))
		}
		secret = gfAdd(secret, gfMul(basis, ys[i]))
	}
	return secret
}
