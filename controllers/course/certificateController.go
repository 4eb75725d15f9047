package controllers

import (
	"fmt"
	"strings"

	"learnhub/middleware"
	"learnhub/services"

	"github.com/gofiber/fiber/v2"
)

// DownloadCertificate issues the caller's certificate on first request and
// streams the PDF. Every call counts as a download.
func DownloadCertificate(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	issued, err := services.App.Certificates.Issue(c.UserContext(), userId, c.Locals("courseId").(uint))
	if err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="certificate-%s.pdf"`, issued.Certificate.CertificateNumber))
	c.Set("X-Certificate-Number", issued.Certificate.CertificateNumber)
	status := fiber.StatusOK
	if issued.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).Send(issued.PDF)
}

func GetUserCertificates(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	certs, err := services.App.Certificates.ListForUser(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certs)
}

// VerifyCertificate is the public lookup behind the verification URL
func VerifyCertificate(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Params("number"))
	if number == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate number is required!", nil)
	}
	v, err := services.App.Certificates.Verify(c.UserContext(), number)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate is valid.", v)
}

func CertificatePreview(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Params("number"))
	png, err := services.App.Certificates.Preview(c.UserContext(), number)
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(png)
}
